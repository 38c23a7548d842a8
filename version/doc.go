// Package version reports build information for the inventory commands.
//
// Version, git commit, branch and build time are set at compile time
// via -ldflags; anything left unset falls back to the module's VCS stamp:
//
//	go build -ldflags "-X github.com/kbukum/invstream/version.Version=1.0.0" ./cmd/inventory-watch
package version
