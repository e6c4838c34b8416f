package pixivclient

import (
	"context"
	"fmt"

	"github.com/komorebi-io/pixiv-client/internal/client"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// New creates a new Pixiv AppAPI client. When the config carries
// credentials, the initial token exchange happens here; an invalid
// credential fails construction instead of the first request.
func New(ctx context.Context, config *pixiv.Config) (pixiv.Client, error) {
	if config == nil {
		return nil, pixiv.ErrConfigRequired
	}

	impl, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return impl, nil
}

// NewWithRefreshToken creates a client authenticated via the
// refresh_token grant.
func NewWithRefreshToken(ctx context.Context, refreshToken string) (pixiv.Client, error) {
	return New(ctx, &pixiv.Config{RefreshToken: refreshToken})
}

// NewWithPassword creates a client authenticated via the password grant.
func NewWithPassword(ctx context.Context, username, password string) (pixiv.Client, error) {
	return New(ctx, &pixiv.Config{Username: username, Password: password})
}
