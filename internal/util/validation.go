package util

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// ValidateHostPort validates a "host:port" listening address.
// An empty host binds all interfaces; port 0 asks the OS for a free port.
func ValidateHostPort(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range (0-65535)", n)
	}

	return nil
}

// ValidateRedirectLocation validates a redirect target. Absolute URLs
// must be http or https; relative targets must be absolute paths.
func ValidateRedirectLocation(location string) error {
	if location == "" {
		return fmt.Errorf("location cannot be empty")
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}

	if parsed.Scheme == "" {
		if parsed.Host != "" || len(location) == 0 || location[0] != '/' {
			return fmt.Errorf("relative location must start with '/', got: %s", location)
		}
		return nil
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("location scheme must be http or https, got: %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("location must have a host")
	}

	return nil
}
