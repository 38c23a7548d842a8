// Package auth mints and verifies the bearer tokens used by the inventory
// simulator. Tokens are HMAC-signed JWTs (golang-jwt/jwt/v5) carrying a
// subject and a list of scopes. The stream client never parses them; it
// forwards whatever string its token source returns.
//
//	svc, err := auth.NewService(auth.Config{Secret: secret})
//	token, _, err := svc.Mint("watcher-1", 0, auth.ScopeStreamRead)
//	claims, err := svc.Verify(token)
package auth
