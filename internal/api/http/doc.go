// Package http exposes the REST surface of the proxy: health, session
// inspection, session stop and the access log.
//
// Routes (mounted under /api):
//
//	GET    /health              liveness and open browser count
//	GET    /sessions            every live session, no credentials
//	GET    /sessions/:userId    one session or 404
//	DELETE /sessions/:userId    stop a session, idempotent
//	GET    /access-logs         recent access events (?actorId=&limit=)
package http
