// Package sensor reads the current CO2 concentration from a UD-CO2S style
// sensor over HTTP.
//
// The sensor serves its latest reading as plain text at /co2:
//
//	$ curl http://192.168.1.31/co2
//	812
//
// Client.Fetch returns that text untouched (apart from surrounding
// whitespace) so callers decide how to treat non-numeric output;
// Client.ReadPPM additionally parses it.
//
// # Usage Example
//
//	client := sensor.NewClient()
//	ppm, err := client.ReadPPM(ctx, "192.168.1.31")
//	if err != nil {
//	    fmt.Println(sensor.ShortMessage(err))
//	    return
//	}
//
// # Error Handling
//
// Failures are returned as *SensorError values carrying a category
// (timeout, connection refused, DNS, HTTP status, parse) and whether a retry
// could help. ShortMessage and TroubleshootingHint turn them into text for
// the terminal UI.
//
// # Retries
//
// The monitor polls on a fixed interval and treats the next tick as the
// retry, so NewClient disables retries. One-shot commands can enable them
// with SetRetry; delays then grow exponentially up to MaxRetryDelay.
package sensor
