package auth

import "codeberg.org/seoscribe/dashboard/seoscribe/profiles"

// CallbackParams are the query parameters the SEOScribe login redirect carries
type CallbackParams struct {
	Token        string `form:"token"`
	RefreshToken string `form:"refresh_token"`
	Redirect     string `form:"redirect"`
}

// MeResponse describes the signed-in account, if any
type MeResponse struct {
	SignedIn bool           `json:"signed_in"`
	Plan     string         `json:"plan"`
	User     *profiles.User `json:"user,omitempty"`
}
