// Package logging provides structured logging for co2viewer.
//
// It wraps a global zap logger with small helpers for the events the
// monitor, address store and relay report. Logging is silent unless a level
// is requested through --log-level or the CO2VIEWER_LOG_LEVEL environment
// variable:
//
//	CO2VIEWER_LOG_LEVEL=debug co2viewer relay
//
// The interactive monitor owns the terminal, so it initializes logging with
// InitializeToFile and entries land in co2viewer.log under the data
// directory:
//
//	if err := logging.InitializeToFile(level, logPath); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// All functions are safe for concurrent use.
package logging
