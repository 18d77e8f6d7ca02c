//go:build !linux

package network

func checkTap(string) error {
	return ErrUnsupported
}
