package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	capihttp "github.com/komorebi-io/pixiv-client/internal/http"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// NovelsClient implements pixiv.NovelsClient.
type NovelsClient struct {
	httpClient *capihttp.Client
}

func (c *NovelsClient) listNovels(ctx context.Context, path string, query url.Values, cursor string) (*pixiv.Page[pixiv.Novel], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: path, Query: query}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[novelsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing novels: %w", err)
	}

	return envelope.page(), nil
}

func (c *NovelsClient) listComments(ctx context.Context, novelID int64, params *pixiv.QueryParams, cursor string) (*pixiv.Page[pixiv.Comment], error) {
	req := &capihttp.Request{Method: http.MethodGet, Path: "/v1/novel/comments", Query: idQuery("novel_id", novelID, params)}
	if cursor != "" {
		req = &capihttp.Request{Method: http.MethodGet, Path: cursor}
	}

	envelope, err := capihttp.DoDecoded[commentsEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("listing novel comments: %w", err)
	}

	return envelope.page(), nil
}

// Detail implements pixiv.NovelsClient.
func (c *NovelsClient) Detail(ctx context.Context, novelID int64) (*pixiv.Novel, error) {
	req := &capihttp.Request{
		Method: http.MethodGet,
		Path:   "/v2/novel/detail",
		Query:  idQuery("novel_id", novelID, nil),
	}

	envelope, err := capihttp.DoDecoded[novelDetailEnvelope](ctx, c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("getting novel detail: %w", err)
	}

	return &envelope.Novel, nil
}

// Comments implements pixiv.NovelsClient.
func (c *NovelsClient) Comments(ctx context.Context, novelID int64, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Comment], error) {
	return c.listComments(ctx, novelID, params, "")
}

// CommentsIter implements pixiv.NovelsClient.
func (c *NovelsClient) CommentsIter(ctx context.Context, novelID int64, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Comment] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Comment], error) {
		return c.listComments(ctx, novelID, params, cursor)
	}, nil)
}

// Search implements pixiv.NovelsClient.
func (c *NovelsClient) Search(ctx context.Context, word string, params *pixiv.QueryParams) (*pixiv.Page[pixiv.Novel], error) {
	return c.listNovels(ctx, "/v1/search/novel", novelSearchQuery(word, params), "")
}

// SearchIter implements pixiv.NovelsClient.
func (c *NovelsClient) SearchIter(ctx context.Context, word string, params *pixiv.QueryParams) *pixiv.PageIterator[pixiv.Novel] {
	return pixiv.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*pixiv.Page[pixiv.Novel], error) {
		return c.listNovels(ctx, "/v1/search/novel", novelSearchQuery(word, params), cursor)
	}, nil)
}

func novelSearchQuery(word string, params *pixiv.QueryParams) url.Values {
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
