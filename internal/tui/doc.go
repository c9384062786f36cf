// Package tui is the full-screen terminal monitor.
//
// The screen shows either the address form or the gauge, never both. A
// repeating timer asks the monitor for a tick cycle; the monitor decides
// whether to fetch. Fetches run as bubbletea commands so the screen stays
// responsive, and their outcomes come back as messages that the monitor
// folds into the display state.
//
// When an mDNS scanner is supplied, sensors found on the network are
// offered as suggestions in the form (tab to accept).
package tui
