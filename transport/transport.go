package transport

import (
	"context"
	"net"
	"strconv"
)

// Server is a long running listener managed by app.Application.
type Server interface {
	// Run blocks until the server stops.
	Run() error
	Shutdown(context.Context) error
}

// ValidateAddress reports whether addr is a usable host:port. Port 0 asks
// the kernel for a free port.
func ValidateAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if host != "" && !isValidHost(host) {
		return false
	}

	p, err := strconv.Atoi(port)
	return err == nil && p >= 0 && p <= 65535
}

func isValidHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}

	for i, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
		case r == '-':
			if i == 0 || i == len(host)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
