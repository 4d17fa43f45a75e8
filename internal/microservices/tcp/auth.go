package tcp

import "crypto/subtle"

// AuthGuard checks the per-request shared secret. The configured token is
// fixed at construction; an empty token disables auth for every request.
type AuthGuard struct {
	token []byte
}

func NewAuthGuard(token string) *AuthGuard {
	return &AuthGuard{token: []byte(token)}
}

// Enabled reports whether requests must carry a token.
func (a *AuthGuard) Enabled() bool {
	return len(a.token) > 0
}

// Check reports whether a request carrying requestToken may proceed.
// A nil requestToken means the field was absent.
func (a *AuthGuard) Check(requestToken *string) bool {
	if !a.Enabled() {
		return true
	}
	if requestToken == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*requestToken), a.token) == 1
}
