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

// IllustsClient implements pixiv.IllustsClient.
type IllustsClient struct {
	httpClient *capihttp.Client
}

// listIllusts fetches one page of an illust list endpoint. A non-empty
// cursor is the previous page's next_url and is replayed as-is.
func (c *IllustsClient) listIllusts(ctx context.Context, path string, query url.Values, cursor string) (*pixiv.Page[pixiv.Illust], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: path, Query: query}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[illustsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing illusts: %w", err)
	}

	return envelope.page(), nil
}

func (c *IllustsClient) illustsIter(ctx context.Context, path string, query url.Values) *pixiv.PageIterator[pixiv.Illust] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Illust], error) {
		return c.listIllusts(ctx, path, query, cursor)
	}, nil)
}

func (c *IllustsClient) listComments(ctx context.Context, illustID int64, params *pixiv.QueryParams, cursor string) (*pixiv.Page[pixiv.Comment], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: "/v1/illust/comments", Query: idQuery("illust_id", illustID, params)}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[commentsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing illust comments: %w", err)
	}

	return envelope.page(), nil
}

// Detail implements pixiv.IllustsClient.
func (c *IllustsClient) Detail(ctx context.Context, illustID int64) (*pixiv.Illust, error) {
	req := &capihttp.Request{
		Method: http.MethodGet,
		Path:   "/v1/illust/detail",
		Query:  idQuery("illust_id", illustID, nil),
	}

	envelope, err := capihttp.DoDecoded[illustDetailEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("getting illust detail: %w", err)
	}

	return &envelope.Illust, nil
}

// Comments implements pixiv.IllustsClient.
func (c *IllustsClient) Comments(ctx context.Context, illustID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Comment], error) {
	return c.listComments(ctx, illustID, params, "")
}

// CommentsIter implements pixiv.IllustsClient.
func (c *IllustsClient) CommentsIter(ctx context.Context, illustID int64, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Comment] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Comment], error) {
		return c.listComments(ctx, illustID, params, cursor)
	}, nil)
}

// Related implements pixiv.IllustsClient.
func (c *IllustsClient) Related(ctx context.Context, illustID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v2/illust/related", idQuery("illust_id", illustID, params), "")
}

// RelatedIter implements pixiv.IllustsClient.
func (c *IllustsClient) RelatedIter(ctx context.Context, illustID int64, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Illust] {
	return c.illustsIter(ctx, "/v2/illust/related", idQuery("illust_id", illustID, params))
}

// Follow implements pixiv.IllustsClient. It lists new works from followed
// users.
func (c *IllustsClient) Follow(ctx context.Context, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v2/illust/follow", followQuery(params), "")
}

// FollowIter implements pixiv.IllustsClient.
func (c *IllustsClient) FollowIter(ctx context.Context, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Illust] {
	return c.illustsIter(ctx, "/v2/illust/follow", followQuery(params))
}

func followQuery(params *pixiv.QueryParams) url.Values {
	values := baseQuery(params)
	if values.Get("restrict") == "" {
		values.Set("restrict", string(pixiv.RestrictPublic))
	}

	return values
}

// Recommended implements pixiv.IllustsClient.
func (c *IllustsClient) Recommended(ctx context.Context, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v1/illust/recommended", baseQuery(params), "")
}

// Ranking implements pixiv.IllustsClient. Mode is one of the service's
// ranking modes (day, week, month, day_male, ...).
func (c *IllustsClient) Ranking(ctx context.Context, mode string, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	values := baseQuery(params)
	if mode != "" {
		values.Set("mode", mode)
	}

	return c.listIllusts(ctx, "/v1/illust/ranking", values, "")
}

// New implements pixiv.IllustsClient.
func (c *IllustsClient) New(ctx context.Context, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	values := baseQuery(params)
	if values.Get("content_type") == "" {
		values.Set("content_type", string(pixiv.IllustTypeIllust))
	}

	return c.listIllusts(ctx, "/v1/illust/new", values, "")
}

// Search implements pixiv.IllustsClient.
func (c *IllustsClient) Search(ctx context.Context, word string, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Illust], error) {
	return c.listIllusts(ctx, "/v1/search/illust", searchQuery(word, params), "")
}

// SearchIter implements pixiv.IllustsClient.
func (c *IllustsClient) SearchIter(ctx context.Context, word string, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Illust] {
	return c.illustsIter(ctx, "/v1/search/illust", searchQuery(word, params))
}

func searchQuery(word string, params *pixiv.QueryParams) url.Values {
	values := baseQuery(params)
	values.Set("word", word)

	if values.Get("search_target") == "" {
		values.Set("search_target", pixiv.TargetPartialMatchForTags)
	}

	if values.Get("sort") == "" {
		values.Set("sort", pixiv.SortDateDesc)
	}

	return values
}

// AddBookmark implements pixiv.IllustsClient.
func (c *IllustsClient) AddBookmark(ctx context.Context, illustID int64, restrict pixiv.Restrict) error {
	if restrict == "" {
		restrict = pixiv.RestrictPublic
	}

	form := url.Values{}
	form.Set("illust_id", strconv.FormatInt(illustID, 10))
	form.Set("restrict", string(restrict))

	_, err := c.httpClient.Post(ctx, "/v2/illust/bookmark/add", form)
	if err != nil {
		return fmt.Errorf("adding bookmark: %w", err)
	}

	return nil
}

// DeleteBookmark implements pixiv.IllustsClient.
func (c *IllustsClient) DeleteBookmark(ctx context.Context, illustID int64) error {
	form := url.Values{}
	form.Set("illust_id", strconv.FormatInt(illustID, 10))

	_, err := c.httpClient.Post(ctx, "/v1/illust/bookmark/delete", form)
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}

	return nil
}

// UgoiraMetadata implements pixiv.IllustsClient.
func (c *IllustsClient) UgoiraMetadata(ctx context.Context, illustID int64) (*pixiv.UgoiraMetadata, error) {
	req := &capihttp.Request{
		Method: http.MethodGet,
		Path:   "/v1/ugoira/metadata",
		Query:  idQuery("illust_id", illustID, nil),
	}

	envelope, err := capihttp.DoDecoded[ugoiraMetadataEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("getting ugoira metadata: %w", err)
	}

	return &envelope.UgoiraMetadata, nil
}
