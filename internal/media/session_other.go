//go:build !linux

package media

import "fmt"

// NewSession is not available on this platform.
func NewSession(identity string) (Session, error) {
	return nil, fmt.Errorf("media session not supported on this platform")
}
