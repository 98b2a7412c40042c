// Package geo resolves client IP addresses to human-readable locations via an
// external geolocation API. Resolution is best-effort: the login flow must
// never fail because a lookup did.
package geo

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// UnknownLocation is the label used when no location could be resolved.
const UnknownLocation = "Unknown location"

// Location describes where an IP address resolves to.
type Location struct {
	IP        string
	City      string
	Region    string
	Country   string
	Latitude  float64
	Longitude float64
}

// Label returns the "City, Country" display label, or UnknownLocation when
// either part is missing.
func (l Location) Label() string {
	if l.City == "" || l.Country == "" {
		return UnknownLocation
	}
	return fmt.Sprintf("%s, %s", l.City, l.Country)
}

// Locator resolves an IP address to a Location.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// SanitizeIP normalizes loopback forms and strips the IPv6-mapped-IPv4 prefix.
func SanitizeIP(ip string) string {
	if ip == "" || ip == "::1" || ip == "::ffff:127.0.0.1" {
		return "127.0.0.1"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}

// IsPrivateIP reports whether the address is loopback or in a private range.
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate()
}
