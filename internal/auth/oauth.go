package auth

import (
	"context"
	"crypto/md5" //nolint:gosec // the client hash header is defined over MD5
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"github.com/komorebi-io/pixiv-client/internal/constants"
	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

// TokenManager is the interface the HTTP layer uses to obtain and refresh
// bearer tokens.
type TokenManager interface {
	// GetToken returns a valid access token, refreshing if necessary.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken forces a refresh regardless of the current token's
	// validity. The dispatcher calls it once after a 401.
	RefreshToken(ctx context.Context) error

	// SetToken manually installs an access token.
	SetToken(token string, expiresAt time.Time)
}

// Config configures an OAuthTokenManager.
type Config struct {
	// TokenURL is the OAuth token endpoint. Defaults to the production
	// endpoint.
	TokenURL string

	// ClientID and ClientSecret identify the app client. Default to the
	// public mobile client values.
	ClientID     string
	ClientSecret string

	// RefreshToken authenticates via the refresh_token grant.
	RefreshToken string

	// Username and Password authenticate via the password grant; used for
	// the initial login when no refresh token is available.
	Username string
	Password string

	// UserAgent is sent on token endpoint requests.
	UserAgent string

	// OnTokenUpdate, if set, is invoked after every successful exchange.
	OnTokenUpdate func(accessToken, refreshToken string, expiresAt time.Time)

	// HTTPClient overrides the underlying transport, e.g. to route the
	// token exchange through a proxy. Optional.
	HTTPClient *http.Client
}

// OAuthTokenManager exchanges credentials for tokens against the OAuth
// endpoint. All exchange paths share one singleflight key, so at most one
// exchange is in flight per manager regardless of how it was triggered:
// duplicate refreshes can invalidate each other's refresh tokens on the
// service side.
type OAuthTokenManager struct {
	config *Config
	store  *TokenStore
	client *retryablehttp.Client
	group  singleflight.Group

	// gen counts completed exchanges. A forced refresh records it before
	// joining the flight; if it moved by the time the flight body runs,
	// another caller already exchanged and that result is fresh enough.
	gen atomic.Uint64

	// failed is set after a definitive rejection from the token endpoint.
	// It is terminal for the credential set; every subsequent call fails
	// with an AuthError until new credentials are installed.
	failed atomic.Bool
}

// NewOAuthTokenManager creates a token manager for the given credentials.
func NewOAuthTokenManager(config *Config) *OAuthTokenManager {
	if config.TokenURL == "" {
		config.TokenURL = constants.OAuthTokenURL
	}

	if config.ClientID == "" {
		config.ClientID = constants.ClientID
		config.ClientSecret = constants.ClientSecret
	}

	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}

	client := retryablehttp.NewClient()
	client.RetryMax = constants.DefaultRetryMax
	client.RetryWaitMin = constants.DefaultRetryWaitMin
	client.RetryWaitMax = constants.DefaultRetryWaitMax
	client.Logger = nil

	if config.HTTPClient != nil {
		client.HTTPClient = config.HTTPClient
	} else {
		client.HTTPClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}

	return &OAuthTokenManager{
		config: config,
		store:  NewTokenStore(),
		client: client,
	}
}

// Store exposes the underlying token store, used by the constructor to
// seed tokens and by callers that persist credentials.
func (m *OAuthTokenManager) Store() *TokenStore {
	return m.store
}

// Login performs the initial authentication exchange and returns the
// resulting token. It clears a previous Failed state, since the caller
// may have installed fresh credentials.
func (m *OAuthTokenManager) Login(ctx context.Context) (*Token, error) {
	m.failed.Store(false)

	result, err, _ := m.group.Do("exchange", func() (interface{}, error) {
		return m.exchange(ctx)
	})
	if err != nil {
		return nil, err
	}

	token, _ := result.(*Token)

	return token, nil
}

// GetToken returns the current access token, performing a refresh when
// the stored token is missing or expiring.
func (m *OAuthTokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	if m.failed.Load() {
		return "", &pixiv.AuthError{Message: "credentials rejected", Err: pixiv.ErrAuthFailed}
	}

	result, err, _ := m.group.Do("exchange", func() (interface{}, error) {
		// Re-check under the flight: another caller may have refreshed
		// between our validity check and joining the group.
		if token := m.store.Get(); token.Valid() {
			return token, nil
		}

		return m.exchange(ctx)
	})
	if err != nil {
		return "", err
	}

	token, _ := result.(*Token)

	return token.AccessToken, nil
}

// RefreshToken forces a token exchange. It shares the flight with lazy
// refreshes: joining an in-flight exchange satisfies the force, since
// that exchange began after the token this caller saw rejected was
// issued. An exchange that completed between the rejection and this call
// is accepted on the same grounds.
func (m *OAuthTokenManager) RefreshToken(ctx context.Context) error {
	if m.failed.Load() {
		return &pixiv.AuthError{Message: "credentials rejected", Err: pixiv.ErrAuthFailed}
	}

	observed := m.gen.Load()

	_, err, _ := m.group.Do("exchange", func() (interface{}, error) {
		if m.gen.Load() != observed {
			if token := m.store.Get(); token.Valid() {
				return token, nil
			}
		}

		return m.exchange(ctx)
	})

	return err
}

// SetToken manually installs an access token.
func (m *OAuthTokenManager) SetToken(token string, expiresAt time.Time) {
	m.failed.Store(false)
	m.store.Set(&Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// exchange performs one grant against the token endpoint and stores the
// result. The refresh_token grant is preferred; the password grant is
// used only when no refresh token is known yet.
func (m *OAuthTokenManager) exchange(ctx context.Context) (*Token, error) {
	form := url.Values{}
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)
	form.Set("get_secure_url", "1")

	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	switch {
	case refreshToken != "":
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", refreshToken)
	case m.config.Username != "" && m.config.Password != "":
		form.Set("grant_type", "password")
		form.Set("username", m.config.Username)
		form.Set("password", m.config.Password)
	default:
		return nil, &pixiv.AuthError{Message: "no credentials", Err: pixiv.ErrCredentialsRequired}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", m.config.UserAgent)
	setClientHashHeaders(req.Header, time.Now())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &pixiv.TransportError{Attempts: m.client.RetryMax + 1, URL: m.config.TokenURL, Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pixiv.TransportError{Attempts: 1, URL: m.config.TokenURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		authErr := parseAuthError(resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// The endpoint rejected the credentials themselves. Further
			// attempts with the same credentials cannot succeed.
			m.failed.Store(true)
		}

		return nil, authErr
	}

	token, err := parseTokenResponse(body)
	if err != nil {
		return nil, err
	}

	m.store.Set(token)
	m.gen.Add(1)

	if m.config.OnTokenUpdate != nil {
		m.config.OnTokenUpdate(token.AccessToken, token.RefreshToken, token.ExpiresAt)
	}

	return token, nil
}

// tokenResponse is the token endpoint's success envelope. The fields are
// duplicated at the top level and under "response"; the top level wins
// when present.
type tokenResponse struct {
	Token

	Response *struct {
		Token

		User struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"response"`
}

func parseTokenResponse(body []byte) (*Token, error) {
	var envelope tokenResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &pixiv.DecodeError{Expected: "token response", Actual: "unparseable body", Err: err}
	}

	token := envelope.Token
	if token.AccessToken == "" && envelope.Response != nil {
		token = envelope.Response.Token
	}

	if token.AccessToken == "" {
		return nil, &pixiv.DecodeError{Field: "access_token", Expected: "non-empty string", Actual: "absent"}
	}

	if envelope.Response != nil {
		token.AccountID = envelope.Response.User.ID
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}

// authErrorBody covers both error shapes the token endpoint produces:
// the OAuth style {"error": ..., "error_description": ...} and the
// AppAPI style {"has_error": true, "errors": {"system": {"message": ...}}}.
type authErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	HasError         bool   `json:"has_error"`
	Errors           struct {
		System struct {
			Message string `json:"message"`
		} `json:"system"`
	} `json:"errors"`
}

func parseAuthError(statusCode int, body []byte) *pixiv.AuthError {
	authErr := &pixiv.AuthError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}

	var envelope authErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			authErr.Message = envelope.Error
			authErr.Description = envelope.ErrorDescription
		} else if envelope.HasError {
			authErr.Message = envelope.Errors.System.Message
		}
	}

	return authErr
}

// setClientHashHeaders adds the X-Client-Time/X-Client-Hash pair the
// token endpoint requires of app clients.
func setClientHashHeaders(header http.Header, now time.Time) {
	clientTime := now.UTC().Format("2006-01-02T15:04:05+00:00")
	sum := md5.Sum([]byte(clientTime + constants.ClientHashSecret)) //nolint:gosec // see package import note

	header.Set("X-Client-Time", clientTime)
	header.Set("X-Client-Hash", hex.EncodeToString(sum[:]))
}
