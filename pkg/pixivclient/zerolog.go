package pixivclient

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter adapts a zerolog.Logger to the pixiv.Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps a zerolog logger for use as Config.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Debug implements pixiv.Logger.
func (a *ZerologAdapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug().Fields(fields).Msg(msg)
}

// Info implements pixiv.Logger.
func (a *ZerologAdapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info().Fields(fields).Msg(msg)
}

// Warn implements pixiv.Logger.
func (a *ZerologAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn().Fields(fields).Msg(msg)
}

// Error implements pixiv.Logger.
func (a *ZerologAdapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error().Fields(fields).Msg(msg)
}
