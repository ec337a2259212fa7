package link

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// AccessPoint describes the wireless network the host joins. The access
// point itself is run by the operating system (hostapd or similar); Up only
// checks that the interface serving it exists and is addressed.
type AccessPoint struct {
	Interface  string
	SSID       string
	Passphrase string
}

var ErrNoAddress = errors.New("link: interface has no address")

// interfaceByName is replaced in tests.
var interfaceByName = func(name string) (addresser, error) {
	return net.InterfaceByName(name)
}

type addresser interface {
	Addrs() ([]net.Addr, error)
}

func (ap AccessPoint) Up(log *slog.Logger) error {
	if ap.SSID == "" {
		return errors.New("link: ssid required")
	}
	if len(ap.Passphrase) > 0 && len(ap.Passphrase) < 8 {
		return errors.New("link: passphrase must be at least 8 characters")
	}
	if ap.Interface == "" {
		log.Info("access point assumed up", "ssid", ap.SSID)
		return nil
	}

	iface, err := interfaceByName(ap.Interface)
	if err != nil {
		return fmt.Errorf("link: interface %s: %w", ap.Interface, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return fmt.Errorf("link: interface %s: %w", ap.Interface, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAddress, ap.Interface)
	}

	log.Info("access point up", "ssid", ap.SSID, "interface", ap.Interface, "addr", addrs[0].String())
	return nil
}
