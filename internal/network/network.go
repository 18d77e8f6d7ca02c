// Package network resolves the guest network flags that depend on host state.
package network

import (
	"errors"
	"fmt"
)

var (
	// ErrInterfaceNotFound means the requested host interface does not exist.
	ErrInterfaceNotFound = errors.New("interface not found")
	// ErrNotTap means the host interface exists but is not a tap device.
	ErrNotTap = errors.New("interface is not a tap device")
	// ErrUnsupported means tap networking is not available on this platform.
	ErrUnsupported = errors.New("tap networking is not supported on this platform")
)

// TapArgs returns the -net flag that attaches the guest to the host tap
// interface name, after checking the interface is usable.
func TapArgs(name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInterfaceNotFound)
	}
	if err := checkTap(name); err != nil {
		return nil, err
	}
	return []string{"-net", fmt.Sprintf("tap,ifname=%s,script=no,downscript=no", name)}, nil
}
