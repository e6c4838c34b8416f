// Package constants centralizes endpoint URLs, OAuth client identity, and
// timing defaults shared across the client packages.
package constants

import "time"

// Service endpoints.
const (
	// AppAPIBaseURL is the base URL for the Pixiv AppAPI.
	AppAPIBaseURL = "https://app-api.pixiv.net"

	// OAuthTokenURL is the token endpoint used for login and refresh.
	OAuthTokenURL = "https://oauth.secure.pixiv.net/auth/token"

	// ImageReferer must accompany requests to the image CDN, which rejects
	// downloads without it.
	ImageReferer = "https://app-api.pixiv.net/"
)

// OAuth client identity. These are the public AppAPI client values shipped
// inside the official mobile applications.
const (
	// ClientID identifies the mobile app client to the token endpoint.
	ClientID = "MOBrBDS8blbauoSck0ZfDbtuzpyT"

	// ClientSecret is paired with ClientID on every token exchange.
	ClientSecret = "lsACyCD94FhDUtGTXi3QzcFE2uU1hqtDaKeqrdwj"

	// ClientHashSecret salts the X-Client-Hash header.
	ClientHashSecret = "28c1fdd170a5204386cb1313c7077b34f83e4aaf4aa829ce78c231e05b0bae2c"
)

// HTTP defaults.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultUserAgent mirrors the official Android client.
	DefaultUserAgent = "PixivAndroidApp/5.0.234 (Android 11; Pixel 5)"

	// AcceptLanguage is sent on every AppAPI request so tag translations
	// come back in a predictable locale.
	AcceptLanguage = "en-US"
)

// Retry and backoff defaults.
const (
	// DefaultRetryMax is the default maximum number of retry attempts for
	// transient failures.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the initial backoff between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps the backoff between retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Rate limiting defaults. The AppAPI has no published limit; these values
// stay well under the thresholds that trigger 429 responses in practice.
const (
	// DefaultRateLimit is the sustained request rate in requests/second.
	DefaultRateLimit = 2.0

	// DefaultRateBurst allows short bursts above the sustained rate.
	DefaultRateBurst = 5
)

// Token lifecycle.
const (
	// TokenExpiryMargin is subtracted from a token's lifetime when deciding
	// whether it is still usable, so a token is refreshed before it expires
	// mid-request.
	TokenExpiryMargin = 30 * time.Second
)
