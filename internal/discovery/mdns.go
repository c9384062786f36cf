package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/co2viewer/internal/logging"
)

const (
	// ServiceType is the mDNS service type sensors advertise their web server under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 3 * time.Second

	// DefaultPort is the default HTTP port for sensors
	DefaultPort = 80

	// DefaultPattern matches UD-CO2S sensor hostnames and instance names
	DefaultPattern = `(?i)^ud-?co2s`
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	// Pattern selects which advertised hosts count as sensors
	Pattern *regexp.Regexp
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		Pattern: regexp.MustCompile(DefaultPattern),
	}
}

// SetPattern replaces the sensor name pattern.
func (s *Scanner) SetPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid sensor pattern %q: %w", expr, err)
	}
	s.Pattern = re
	return nil
}

// Scan discovers sensors until the timeout or ctx expires. Results are
// sorted by address and contain each address once.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		devices = make(map[string]*Device)
	)

	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device == nil {
				continue
			}
			mu.Lock()
			if _, seen := devices[device.Address()]; !seen {
				devices[device.Address()] = device
				logging.Debug("Discovered sensor",
					zap.String("name", device.Name()),
					zap.String("address", device.Address()),
				)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return sortDevices(devices), nil
}

// Addresses scans and returns only the device addresses.
func (s *Scanner) Addresses(ctx context.Context) ([]string, error) {
	devices, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(devices))
	for _, d := range devices {
		addrs = append(addrs, d.Address())
	}
	return addrs, nil
}

func sortDevices(devices map[string]*Device) []*Device {
	list := make([]*Device, 0, len(devices))
	for _, d := range devices {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Address() < list[j].Address()
	})
	return list
}

// matches reports whether the entry's hostname or instance looks like a sensor.
func (s *Scanner) matches(entry *zeroconf.ServiceEntry) bool {
	pattern := s.Pattern
	if pattern == nil {
		pattern = regexp.MustCompile(DefaultPattern)
	}
	return pattern.MatchString(entry.HostName) || pattern.MatchString(entry.Instance)
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry is not a sensor or carries no address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || !s.matches(entry) {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are "key=value" or a bare key
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScan performs a scan with the default timeout
func QuickScan(ctx context.Context) ([]*Device, error) {
	return NewScanner().Scan(ctx)
}
