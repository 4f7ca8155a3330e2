// Package logging builds the service's zap logger.
//
// Production mode writes JSON lines; development mode writes coloured
// console output at debug level. Components receive a *zap.Logger and add
// their own fields (user_id, session_id, strategy, url).
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "5001"))
package logging
