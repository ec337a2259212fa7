package sampler

import (
	"imucast/multiplexer"
)

const (
	SCAN_FIRST_ADDR = 0x08
	SCAN_LAST_ADDR  = 0x77
)

// ScanResult lists the addresses that acknowledged while a channel was selected.
type ScanResult struct {
	Channel   int
	Addresses []uint16
	Err       error
}

// Scan selects each channel in turn and probes the 7-bit address range.
func Scan(mux multiplexer.Selector, bus multiplexer.Bus) []ScanResult {
	results := make([]ScanResult, 0, mux.Channels())
	for ch := 0; ch < mux.Channels(); ch++ {
		res := ScanResult{Channel: ch}
		if err := mux.Select(ch); err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		for addr := uint16(SCAN_FIRST_ADDR); addr <= SCAN_LAST_ADDR; addr++ {
			if bus.Tx(addr, []byte{0x00}, nil) == nil {
				res.Addresses = append(res.Addresses, addr)
			}
		}
		results = append(results, res)
	}
	return results
}
