// Package ws is the viewer-facing WebSocket transport.
//
// Every frame is a JSON envelope. Inbound: {"type": ..., "data": {...}}
// with types join, start-session, user-interaction, stop-session and
// ping. Outbound: {"type": ..., "data": {...}, "timestamp": ms}.
//
// Connections join per-user rooms. Engine events (screenshots, login
// status, page errors and dialogs) go to the whole room through Hub.Emit;
// replies to a request (stream-started, stream-error, stream-stopped,
// interaction-error, error) go only to the requesting connection.
// Starting a session joins the requesting connection to the user's room.
package ws
