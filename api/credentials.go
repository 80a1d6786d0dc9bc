package api

import "sync"

// Credentials is the access/refresh token pair issued by the backend.
// The zero value means "not authenticated".
type Credentials struct {
	// AccessToken is the bearer token attached to authenticated requests.
	AccessToken string `json:"access_token"`
	// RefreshToken is exchanged for a new pair when the access token expires.
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore holds the current token pair. It is the only place tokens
// live; collaborators observe authentication state through IsAuthenticated.
// Safe for concurrent use.
type CredentialStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// SetAccessToken replaces the stored access token.
func (s *CredentialStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = token
}

// SetRefreshToken replaces the stored refresh token.
func (s *CredentialStore) SetRefreshToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.RefreshToken = token
}

// SetCredentials replaces both tokens at once.
func (s *CredentialStore) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
}

// Clear drops both tokens. Idempotent.
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
}

// AccessToken returns the current access token, or "" when there is none.
func (s *CredentialStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

// RefreshToken returns the current refresh token, or "" when there is none.
func (s *CredentialStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

// Credentials returns a copy of the stored pair.
func (s *CredentialStore) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// IsAuthenticated reports whether an access token is stored.
func (s *CredentialStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken != ""
}
