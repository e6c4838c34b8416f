// Package auth implements the OAuth token lifecycle for the AppAPI:
// login, expiry tracking, and deduplicated refresh.
package auth

import (
	"sync"
	"time"

	"github.com/komorebi-io/pixiv-client/internal/constants"
)

// Token represents an OAuth token pair with expiration.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`

	// ExpiresAt is computed from ExpiresIn when the token is received.
	ExpiresAt time.Time `json:"-"`

	// AccountID is the numeric ID of the authenticated user, when the
	// token endpoint reports one.
	AccountID string `json:"-"`
}

// Valid returns true if the token exists and is not expired. A token
// within the expiry margin of its deadline counts as expired so it is
// refreshed before it can lapse mid-request.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpiryMargin).Before(t.ExpiresAt)
}

// TokenStore provides thread-safe token storage. It is the only
// credential state shared across concurrently issued requests.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}
