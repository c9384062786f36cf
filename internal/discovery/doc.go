// Package discovery finds CO2 sensors on the local network over mDNS.
//
// Sensors advertise their built-in web server as "_http._tcp" services. The
// scanner browses that service type for a fixed window and keeps entries
// whose hostname or instance name matches a sensor pattern (by default
// anything starting with "UD-CO2S", case-insensitive).
//
// Each Device yields an Address that can be stored and handed to the sensor
// client unchanged:
//
//	devices, err := discovery.NewScanner().Scan(ctx)
//	for _, d := range devices {
//	    fmt.Println(d.Name(), d.Address())
//	}
//
// Discovery needs multicast on the local segment and UDP port 5353 open.
package discovery
