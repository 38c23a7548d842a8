package httpclient

import "net/http"

// Auth decorates an outgoing request with credentials. A nil Auth on a
// Request inherits Config.Auth.
type Auth func(*http.Request)

// BearerAuth sends token verbatim as "Authorization: Bearer <token>".
func BearerAuth(token string) Auth {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// CustomAuth adapts fn.
func CustomAuth(fn func(*http.Request)) Auth { return Auth(fn) }

// NoAuth suppresses Config.Auth for one request.
func NoAuth() Auth { return func(*http.Request) {} }

func (a Auth) apply(r *http.Request) {
	if a != nil {
		a(r)
	}
}
