package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	capihttp "github.com/komorebi-io/pixiv-client/internal/http"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// UsersClient implements pixiv.UsersClient.
type UsersClient struct {
	httpClient *capihttp.Client
}

func (c *UsersClient) listIllusts(ctx context.Context, path string, query url.Values, cursor string) (*pixiv.Page[pixiv.Illust], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: path, Query: query}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[illustsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing user illusts: %w", err)
	}

	return envelope.page(), nil
}

func (c *UsersClient) listPreviews(ctx context.Context, path string, query url.Values, cursor string) (*pixiv.Page[pixiv.UserPreview], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: path, Query: query}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[userPreviewsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing user previews: %w", err)
	}

	return envelope.page(), nil
}

// Detail implements pixiv.UsersClient.
func (c *UsersClient) Detail(ctx context.Context, userID int64) (*pixiv.UserDetail, error) {
	req := &capihttp.Request{
		Method: http.MethodGet,
		Path:   "/v1/user/detail",
		Query:  idQuery("user_id", userID, nil),
	}

	detail, err := capihttp.DoDecoded[pixiv.UserDetail](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("getting user detail: %w", err)
	}

	return detail, nil
}

// Illusts implements pixiv.UsersClient.
func (c *UsersClient) Illusts(ctx context.Context, userID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v1/user/illusts", idQuery("user_id", userID, params), "")
}

// IllustsIter implements pixiv.UsersClient.
func (c *UsersClient) IllustsIter(ctx context.Context, userID int64, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Illust] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Illust], error) {
		return c.listIllusts(ctx, "/v1/user/illusts", idQuery("user_id", userID, params), cursor)
	}, nil)
}

// Novels implements pixiv.UsersClient.
func (c *UsersClient) Novels(ctx context.Context, userID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Novel], error) {
	req := &capihttp.Request{
		Method: http.MethodGet,
		Path:   "/v1/user/novels",
		Query:  idQuery("user_id", userID, params),
	}

	envelope, err := capihttp.DoDecoded[novelsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing user novels: %w", err)
	}

	return envelope.page(), nil
}

// Bookmarks implements pixiv.UsersClient. It lists the user's public
// illust bookmarks unless params narrows the scope.
func (c *UsersClient) Bookmarks(ctx context.Context, userID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v1/user/bookmarks/illust", bookmarksQuery(userID, params), "")
}

// BookmarksIter implements pixiv.UsersClient.
func (c *UsersClient) BookmarksIter(ctx context.Context, userID int64, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Illust] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Illust], error) {
		return c.listIllusts(ctx, "/v1/user/bookmarks/illust", bookmarksQuery(userID, params), cursor)
	}, nil)
}

func bookmarksQuery(userID int64, params *pixiv.QueryParams) url.Values {
	values := idQuery("user_id", userID, params)
	if values.Get("restrict") == "" {
		values.Set("restrict", string(pixiv.RestrictPublic))
	}

	return values
}

// Following implements pixiv.UsersClient.
func (c *UsersClient) Following(ctx context.Context, userID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.UserPreview], error) {
	return c.listPreviews(ctx, "/v1/user/following", idQuery("user_id", userID, params), "")
}

// Search implements pixiv.UsersClient.
func (c *UsersClient) Search(ctx context.Context, word string, params *pixiv.QueryParams) (*pixiv.Page[pixiv.UserPreview], error) {
	values := baseQuery(params)
	values.Set("word", word)

	return c.listPreviews(ctx, "/v1/search/user", values, "")
}

// SearchIter implements pixiv.UsersClient.
func (c *UsersClient) SearchIter(ctx context.Context, word string, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.UserPreview] {
	values := baseQuery(params)
	values.Set("word", word)

	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.UserPreview], error) {
		return c.listPreviews(ctx, "/v1/search/user", values, cursor)
	}, nil)
}

// Follow implements pixiv.UsersClient.
func (c *UsersClient) Follow(ctx context.Context, userID int64, restrict pixiv.Restrict) error {
	if restrict == "" {
		restrict = pixiv.RestrictPublic
	}

	form := url.Values{}
	form.Set("user_id", strconv.FormatInt(userID, 10))
	form.Set("restrict", string(restrict))

	_, err := c.httpClient.Post(ctx, "/v1/user/follow/add", form)
	if err != nil {
		return fmt.Errorf("following user: %w", err)
	}

	return nil
}

// Unfollow implements pixiv.UsersClient.
func (c *UsersClient) Unfollow(ctx context.Context, userID int64) error {
	form := url.Values{}
	form.Set("user_id", strconv.FormatInt(userID, 10))

	_, err := c.httpClient.Post(ctx, "/v1/user/follow/delete", form)
	if err != nil {
		return fmt.Errorf("unfollowing user: %w", err)
	}

	return nil
}
