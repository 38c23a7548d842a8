// Package logger wraps zerolog with the service and component tags every
// invstream binary writes.
//
// Binaries call Init once from their logging config section:
//
//	logging:
//	  level: info
//	  format: json   # or console
//	  output: stderr
//
// Libraries take a *Logger through an option and default to NewNop, so
// they stay silent unless wired:
//
//	log := logger.WithComponent("stream")
//	log.Info("session open", logger.Fields(logger.FieldSessionID, id))
package logger
