// Package client wires the auth, http, and resource layers into the
// pixiv.Client interface.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/komorebi-io/pixiv-client/internal/auth"
	"github.com/komorebi-io/pixiv-client/internal/constants"
	capihttp "github.com/komorebi-io/pixiv-client/internal/http"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// Client implements the pixiv.Client interface.
type Client struct {
	httpClient   *capihttp.Client
	tokenManager *auth.OAuthTokenManager

	illusts pixiv.IllustsClient
	novels  pixiv.NovelsClient
	users   pixiv.UsersClient
}

// New creates a client from config. When credentials are present the
// initial token exchange is performed before the client is returned, so
// a misconfigured credential fails construction rather than the first
// call.
func New(ctx context.Context, config *pixiv.Config) (*Client, error) {
	if config == nil {
		return nil, pixiv.ErrConfigRequired
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = constants.AppAPIBaseURL
	}

	transportClient, err := buildTransportClient(config)
	if err != nil {
		return nil, err
	}

	tokenManager := auth.NewOAuthTokenManager(&auth.Config{
		TokenURL:      config.AuthURL,
		RefreshToken:  config.RefreshToken,
		Username:      config.Username,
		Password:      config.Password,
		UserAgent:     config.UserAgent,
		OnTokenUpdate: config.OnTokenUpdate,
		HTTPClient:    transportClient,
	})

	if config.RefreshToken != "" || config.Username != "" {
		if _, err := tokenManager.Login(ctx); err != nil {
			return nil, err
		}
	}

	httpClient := capihttp.NewClient(baseURL, tokenManager, httpOptions(config, transportClient)...)

	c := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
	}
	c.illusts = &IllustsClient{httpClient: httpClient}
	c.novels = &NovelsClient{httpClient: httpClient}
	c.users = &UsersClient{httpClient: httpClient}

	return c, nil
}

// NewWithTokenManager creates a client around an existing token manager,
// used by tests and by callers that manage credentials themselves.
func NewWithTokenManager(baseURL string, tokenManager *auth.OAuthTokenManager, opts ...capihttp.Option) *Client {
	if baseURL == "" {
		baseURL = constants.AppAPIBaseURL
	}

	httpClient := capihttp.NewClient(baseURL, tokenManager, opts...)

	c := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
	}
	c.illusts = &IllustsClient{httpClient: httpClient}
	c.novels = &NovelsClient{httpClient: httpClient}
	c.users = &UsersClient{httpClient: httpClient}

	return c
}

func httpOptions(config *pixiv.Config, transportClient *http.Client) []capihttp.Option {
	opts := []capihttp.Option{
		capihttp.WithHTTPClient(transportClient),
	}

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		retryMax := config.RetryMax
		if retryMax <= 0 {
			retryMax = constants.DefaultRetryMax
		}

		waitMin := config.RetryWaitMin
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, capihttp.WithRetryConfig(retryMax, waitMin, waitMax))
	}

	if config.RateLimit > 0 || config.RateBurst > 0 {
		opts = append(opts, capihttp.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	if config.UserAgent != "" {
		opts = append(opts, capihttp.WithUserAgent(config.UserAgent))
	}

	if config.Logger != nil {
		opts = append(opts, capihttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, capihttp.WithDebug(true))
	}

	if config.EventSink != nil {
		opts = append(opts, capihttp.WithEventSink(config.EventSink))
	}

	if config.Interceptors != nil {
		opts = append(opts, capihttp.WithInterceptors(config.Interceptors))
	}

	return opts
}

// buildTransportClient assembles the underlying *http.Client, including
// optional proxy routing. net/http natively supports http, https, and
// socks5 proxy URLs.
func buildTransportClient(config *pixiv.Config) (*http.Client, error) {
	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	transport, _ := http.DefaultTransport.(*http.Transport)
	transport = transport.Clone()

	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err != nil || proxyURL.Scheme == "" {
			return nil, fmt.Errorf("%w: %q", pixiv.ErrInvalidProxyURL, config.ProxyURL)
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// Illusts implements pixiv.Client.
func (c *Client) Illusts() pixiv.IllustsClient {
	return c.illusts
}

// Novels implements pixiv.Client.
func (c *Client) Novels() pixiv.NovelsClient {
	return c.novels
}

// Users implements pixiv.Client.
func (c *Client) Users() pixiv.UsersClient {
	return c.users
}

// Download implements pixiv.Client.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return c.httpClient.Download(ctx, rawURL)
}

// TokenManager exposes the auth manager, mainly so callers can seed or
// extract credentials.
func (c *Client) TokenManager() *auth.OAuthTokenManager {
	return c.tokenManager
}

// HTTPClient exposes the dispatcher for endpoint methods not covered by
// the typed resource clients.
func (c *Client) HTTPClient() *capihttp.Client {
	return c.httpClient
}

// baseQuery returns query values with the parameters every AppAPI list
// call carries.
func baseQuery(params *pixiv.QueryParams) url.Values {
	values := params.ToValues()
	if values.Get("filter") == "" {
		values.Set("filter", "for_ios")
	}

	return values
}

func idQuery(key string, id int64, params *pixiv.QueryParams) url.Values {
	values := baseQuery(params)
	values.Set(key, strconv.FormatInt(id, 10))

	return values
}
