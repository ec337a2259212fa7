// Package probe finds the boards attached to the host: serial ports and the
// USB to UART bridges behind them.
package probe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karalabe/usb"
	"go.bug.st/serial/enumerator"
)

// ANY_PID matches every product of a vendor.
const ANY_PID = 0xFFFF

type Bridge struct {
	VID, PID uint16
	Name     string
}

var KnownBridges = []Bridge{
	{VID: 0x10c4, PID: 0xea60, Name: "CP210x"},
	{VID: 0x1a86, PID: 0x7523, Name: "CH340"},
	{VID: 0x0403, PID: 0x6001, Name: "FT232R"},
	{VID: 0x303a, PID: ANY_PID, Name: "Espressif USB"},
}

// MatchBridge reports the bridge name for a vendor/product pair.
func MatchBridge(vid, pid uint16) (string, bool) {
	for _, b := range KnownBridges {
		if b.VID == vid && (b.PID == ANY_PID || b.PID == pid) {
			return b.Name, true
		}
	}
	return "", false
}

type Port struct {
	Name    string
	IsUSB   bool
	VID     uint16
	PID     uint16
	Serial  string
	Product string
	Bridge  string
}

func (p Port) String() string {
	if !p.IsUSB {
		return p.Name
	}
	s := fmt.Sprintf("%s %04x:%04x", p.Name, p.VID, p.PID)
	if p.Bridge != "" {
		s += " " + p.Bridge
	}
	return s
}

type USBDevice struct {
	Path         string
	VID          uint16
	PID          uint16
	Manufacturer string
	Product      string
	Serial       string
	Bridge       string
}

// listPorts and listUSB are replaced in tests.
var (
	listPorts = enumerator.GetDetailedPortsList
	listUSB   = func() ([]usb.DeviceInfo, error) {
		if !usb.Supported() {
			return nil, nil
		}
		return usb.Enumerate(0, 0)
	}
)

// SerialPorts lists the serial ports of the host with their USB identity.
func SerialPorts() ([]Port, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("probe: list serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		p := Port{Name: d.Name, IsUSB: d.IsUSB, Serial: d.SerialNumber, Product: d.Product}
		if d.IsUSB {
			p.VID = parseID(d.VID)
			p.PID = parseID(d.PID)
			p.Bridge, _ = MatchBridge(p.VID, p.PID)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// USBDevices lists USB devices. It returns nothing on platforms without USB
// enumeration support.
func USBDevices() ([]USBDevice, error) {
	infos, err := listUSB()
	if err != nil {
		return nil, fmt.Errorf("probe: enumerate usb: %w", err)
	}

	seen := make(map[string]bool, len(infos))
	devices := make([]USBDevice, 0, len(infos))
	for _, info := range infos {
		// one entry per interface; keep the first
		if seen[info.Path] {
			continue
		}
		seen[info.Path] = true

		dev := USBDevice{
			Path:         info.Path,
			VID:          info.VendorID,
			PID:          info.ProductID,
			Manufacturer: info.Manufacturer,
			Product:      info.Product,
			Serial:       info.Serial,
		}
		dev.Bridge, _ = MatchBridge(dev.VID, dev.PID)
		devices = append(devices, dev)
	}
	return devices, nil
}

// Board picks the first serial port behind a known bridge.
func Board(ports []Port) (Port, bool) {
	for _, p := range ports {
		if p.Bridge != "" {
			return p, true
		}
	}
	return Port{}, false
}

func parseID(s string) uint16 {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}
