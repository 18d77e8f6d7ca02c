//go:build linux

package network

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
)

var linkByName = netlink.LinkByName

func checkTap(name string) error {
	link, err := linkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
		}
		return fmt.Errorf("lookup interface %s: %w", name, err)
	}

	tuntap, ok := link.(*netlink.Tuntap)
	if !ok || tuntap.Mode != netlink.TUNTAP_MODE_TAP {
		return fmt.Errorf("%w: %s is %s", ErrNotTap, name, link.Type())
	}
	return nil
}
