package client

import (
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// List envelopes. Every AppAPI list endpoint wraps its items under an
// endpoint-specific key next to an opaque "next_url" cursor. Validation
// walks the items so a malformed element fails the whole decode instead
// of leaking a partially-valid record.

type illustsEnvelope struct {
	Illusts []pixiv.Illust `json:"illusts"`
	NextURL string         `json:"next_url"`
}

func (e *illustsEnvelope) Validate() error {
	for i := range e.Illusts {
		if err := e.Illusts[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (e *illustsEnvelope) page() *pixiv.Page[pixiv.Illust] {
	return &pixiv.Page[pixiv.Illust]{Items: e.Illusts, NextURL: e.NextURL}
}

type commentsEnvelope struct {
	Comments []pixiv.Comment `json:"comments"`
	NextURL  string          `json:"next_url"`
}

func (e *commentsEnvelope) Validate() error {
	for i := range e.Comments {
		if err := e.Comments[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (e *commentsEnvelope) page() *pixiv.Page[pixiv.Comment] {
	return &pixiv.Page[pixiv.Comment]{Items: e.Comments, NextURL: e.NextURL}
}

type novelsEnvelope struct {
	Novels  []pixiv.Novel `json:"novels"`
	NextURL string        `json:"next_url"`
}

func (e *novelsEnvelope) Validate() error {
	for i := range e.Novels {
		if err := e.Novels[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (e *novelsEnvelope) page() *pixiv.Page[pixiv.Novel] {
	return &pixiv.Page[pixiv.Novel]{Items: e.Novels, NextURL: e.NextURL}
}

type userPreviewsEnvelope struct {
	UserPreviews []pixiv.UserPreview `json:"user_previews"`
	NextURL      string              `json:"next_url"`
}

func (e *userPreviewsEnvelope) Validate() error {
	for i := range e.UserPreviews {
		if err := e.UserPreviews[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (e *userPreviewsEnvelope) page() *pixiv.Page[pixiv.UserPreview] {
	return &pixiv.Page[pixiv.UserPreview]{Items: e.UserPreviews, NextURL: e.NextURL}
}

// Detail envelopes.

type illustDetailEnvelope struct {
	Illust pixiv.Illust `json:"illust"`
}

func (e *illustDetailEnvelope) Validate() error {
	return e.Illust.Validate()
}

type novelDetailEnvelope struct {
	Novel pixiv.Novel `json:"novel"`
}

func (e *novelDetailEnvelope) Validate() error {
	return e.Novel.Validate()
}

type ugoiraMetadataEnvelope struct {
	UgoiraMetadata pixiv.UgoiraMetadata `json:"ugoira_metadata"`
}

func (e *ugoiraMetadataEnvelope) Validate() error {
	return e.UgoiraMetadata.Validate()
}
