package pixiv

import (
	"context"
	"time"
)

// IllustsClient provides access to illustration, manga, and ugoira
// endpoints. List endpoints come in paged form (one envelope per call)
// and iterator form (lazy traversal across pages).
type IllustsClient interface {
	Detail(ctx context.Context, illustID int64) (*Illust, error)
	Comments(ctx context.Context, illustID int64, params *QueryParams) (*Page[Comment], error)
	CommentsIter(ctx context.Context, illustID int64, params *QueryParams) *PageIterator[Comment]
	Related(ctx context.Context, illustID int64, params *QueryParams) (*Page[Illust], error)
	RelatedIter(ctx context.Context, illustID int64, params *QueryParams) *PageIterator[Illust]
	Follow(ctx context.Context, params *QueryParams) (*Page[Illust], error)
	FollowIter(ctx context.Context, params *QueryParams) *PageIterator[Illust]
	Recommended(ctx context.Context, params *QueryParams) (*Page[Illust], error)
	Ranking(ctx context.Context, mode string, params *QueryParams) (*Page[Illust], error)
	New(ctx context.Context, params *QueryParams) (*Page[Illust], error)
	Search(ctx context.Context, word string, params *QueryParams) (*Page[Illust], error)
	SearchIter(ctx context.Context, word string, params *QueryParams) *PageIterator[Illust]
	AddBookmark(ctx context.Context, illustID int64, restrict Restrict) error
	DeleteBookmark(ctx context.Context, illustID int64) error
	UgoiraMetadata(ctx context.Context, illustID int64) (*UgoiraMetadata, error)
}

// NovelsClient provides access to novel endpoints.
type NovelsClient interface {
	Detail(ctx context.Context, novelID int64) (*Novel, error)
	Comments(ctx context.Context, novelID int64, params *QueryParams) (*Page[Comment], error)
	CommentsIter(ctx context.Context, novelID int64, params *QueryParams) *PageIterator[Comment]
	Search(ctx context.Context, word string, params *QueryParams) (*Page[Novel], error)
	SearchIter(ctx context.Context, word string, params *QueryParams) *PageIterator[Novel]
}

// UsersClient provides access to user endpoints.
type UsersClient interface {
	Detail(ctx context.Context, userID int64) (*UserDetail, error)
	Illusts(ctx context.Context, userID int64, params *QueryParams) (*Page[Illust], error)
	IllustsIter(ctx context.Context, userID int64, params *QueryParams) *PageIterator[Illust]
	Novels(ctx context.Context, userID int64, params *QueryParams) (*Page[Novel], error)
	Bookmarks(ctx context.Context, userID int64, params *QueryParams) (*Page[Illust], error)
	BookmarksIter(ctx context.Context, userID int64, params *QueryParams) *PageIterator[Illust]
	Following(ctx context.Context, userID int64, params *QueryParams) (*Page[UserPreview], error)
	Search(ctx context.Context, word string, params *QueryParams) (*Page[UserPreview], error)
	SearchIter(ctx context.Context, word string, params *QueryParams) *PageIterator[UserPreview]
	Follow(ctx context.Context, userID int64, restrict Restrict) error
	Unfollow(ctx context.Context, userID int64) error
}

// Client is the public surface of a Pixiv AppAPI client.
type Client interface {
	Illusts() IllustsClient
	Novels() NovelsClient
	Users() UsersClient

	// Download fetches raw bytes from the image CDN through the same rate
	// limiter and retry path as API calls.
	Download(ctx context.Context, url string) ([]byte, error)
}

// Logger is the logging interface consumed by the client packages.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a pixiv.Client.
//
// # Authentication
//
// Provide RefreshToken (preferred; obtained once through an interactive
// login flow) or Username/Password. The constructor performs the initial
// token exchange; afterwards the client refreshes tokens on demand and on
// 401 responses. Refreshed credentials are held in memory only; persist
// them via the OnTokenUpdate callback if needed across processes.
//
// # Timeouts and retries
//
// HTTPTimeout bounds a single attempt; per-call deadlines belong in the
// context passed to client methods. RetryMax, RetryWaitMin, and
// RetryWaitMax tune the backoff schedule for transient failures.
type Config struct {
	// BaseURL overrides the AppAPI base URL. Defaults to the production
	// endpoint.
	BaseURL string

	// AuthURL overrides the OAuth token endpoint. Defaults to the
	// production endpoint.
	AuthURL string

	// RefreshToken authenticates via the refresh_token grant.
	RefreshToken string

	// Username and Password authenticate via the password grant. Ignored
	// when RefreshToken is set.
	Username string
	Password string

	// OnTokenUpdate, if set, is called with the new credential pair after
	// every successful login or refresh.
	OnTokenUpdate func(accessToken, refreshToken string, expiresAt time.Time)

	// HTTPTimeout bounds a single HTTP attempt. Defaults to 30s.
	HTTPTimeout time.Duration

	// RetryMax is the maximum number of retries for transient failures.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the exponential backoff between
	// retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// RateLimit is the sustained outbound request rate in requests/second;
	// RateBurst allows short bursts above it. The limiter is shared by
	// every request this client issues.
	RateLimit float64
	RateBurst int

	// ProxyURL routes outbound connections through an HTTP, HTTPS, or
	// SOCKS5 proxy.
	ProxyURL string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Debug enables verbose request/response logging when Logger is set.
	Debug bool

	// Logger receives structured log output from the HTTP layer.
	Logger Logger

	// EventSink receives lifecycle events (rate limit waits, retries,
	// token refreshes, download progress).
	EventSink EventSink

	// Interceptors run around every request the client issues. Request
	// interceptors may mutate or reject the outgoing request; response
	// interceptors observe the result.
	Interceptors *InterceptorChain
}
