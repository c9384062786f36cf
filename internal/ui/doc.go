// Package ui renders the styled output of the non-interactive commands.
//
// Components follow a "render once and print" pattern:
//
//   - Header: command banner with the operation name and parameters
//   - Result: success, failure and warning boxes, failures with
//     troubleshooting tips
//   - Reading card: the donut gauge next to the ppm label and details
//   - Device list: sensors found by mDNS with the address to store
//
// Printer ties them to an io.Writer and the detected terminal width.
//
// Logging is silent unless CO2VIEWER_LOG_LEVEL is set, so log lines never
// interleave with this output.
package ui
