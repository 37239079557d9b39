package auth

// TokenResponse is the body of a successful token request. Expiration is
// the token lifetime in seconds, mirrored from the signed expiry claim.
type TokenResponse struct {
	Token      string `json:"token"`
	Expiration int64  `json:"expiration"`
}
