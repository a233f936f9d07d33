package auth

import (
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

// claims carried by SEOScribe access tokens
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// access token plus optional refresh token
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// reports whether an access token is present
func (c Credentials) IsSet() bool {
	return c.AccessToken != ""
}

// persists credentials for the terminal client
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

// stores the device identity and credentials in a signed cookie
type DeviceSessions struct {
	store sessions.Store
}
