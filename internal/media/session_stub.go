//go:build !linux

package media

import "fmt"

// NewSession creates a platform media session. Only Linux (MPRIS) is
// supported; other platforms fall back to NoOpSession at the call site.
func NewSession() (Session, error) {
	return nil, fmt.Errorf("media session not supported on this platform")
}
