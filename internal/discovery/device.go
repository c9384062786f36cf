package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Device represents a CO2 sensor found on the network
type Device struct {
	// Instance is the advertised service instance name (e.g., "UD-CO2S 1A2B")
	Instance string

	// Hostname is the mDNS hostname (e.g., "ud-co2s-1a2b.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 when the sensor advertises no IPv4
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Name(), strings.TrimSuffix(d.Hostname, "."), d.Address())
}

// Name returns the instance name, falling back to the short hostname.
func (d *Device) Name() string {
	if d.Instance != "" {
		return d.Instance
	}
	host := strings.TrimSuffix(d.Hostname, ".")
	return strings.TrimSuffix(host, ".local")
}

// Address returns the value to store as the sensor address: the IP alone
// for port 80, otherwise host:port.
func (d *Device) Address() string {
	if d.Port == 0 || d.Port == DefaultPort {
		if strings.Contains(d.IP, ":") {
			return "[" + d.IP + "]"
		}
		return d.IP
	}
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
