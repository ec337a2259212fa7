package link

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// UDP sends each payload as one datagram to a fixed destination. Send is
// fire and forget: write errors, including an absent receiver, are dropped.
type UDP struct {
	conn *net.UDPConn
	dest *net.UDPAddr
}

// Bind opens the local datagram endpoint on localPort (0 picks any port) and
// resolves the destination once.
func Bind(localPort int, destHost string, destPort int) (*UDP, error) {
	if destHost == "" {
		return nil, errors.New("link: destination host required")
	}
	dest, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(destHost, strconv.Itoa(destPort)))
	if err != nil {
		return nil, fmt.Errorf("link: resolve destination: %w", err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("link: bind port %d: %w", localPort, err)
	}
	return &UDP{conn: conn, dest: dest}, nil
}

func (u *UDP) Send(payload []byte) {
	_, _ = u.conn.WriteToUDP(payload, u.dest)
}

func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

func (u *UDP) Destination() *net.UDPAddr {
	return u.dest
}

func (u *UDP) Close() error {
	return u.conn.Close()
}
