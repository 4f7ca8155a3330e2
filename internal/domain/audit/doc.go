// Package audit records platform access events.
//
// Sinks are best-effort: the stream engine logs a failed Record and
// carries on. SQLiteStore keeps a local history in the access_logs
// table, HTTPForwarder posts to a remote collector behind a circuit
// breaker, LogSink writes to zap, and Multi fans out to all of them.
package audit
