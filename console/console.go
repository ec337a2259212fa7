// Package console follows the text a board prints on its serial port.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.bug.st/serial"
)

const DEFAULT_BAUD = 115200

// open is replaced in tests.
var open = func(name string, baud int) (io.ReadCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// Tail opens port and logs every line until ctx is done or the port closes.
// lines, when not nil, also receives each line.
func Tail(ctx context.Context, port string, baud int, log *slog.Logger, lines func(string)) error {
	if port == "" {
		return errors.New("console: port required")
	}
	if baud <= 0 {
		baud = DEFAULT_BAUD
	}

	rc, err := open(port, baud)
	if err != nil {
		return fmt.Errorf("console: open %s: %w", port, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = rc.Close()
	}()

	log.Info("console open", "port", port, "baud", baud)
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		log.Info("board", "port", port, "line", line)
		if lines != nil {
			lines(line)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("console: read %s: %w", port, err)
	}
	return nil
}
