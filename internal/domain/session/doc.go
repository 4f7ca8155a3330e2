/*
Package session owns the per-user proxy browser sessions.

A Registry guarantees at most one live Session per user. Starting a
session for a user who already has one closes the old browser and waits
for it to exit before the new one launches; a per-user lock keeps
concurrent starts and stops for the same user in order while different
users proceed in parallel.

Each Session carries a context that is cancelled on Close. Anything bound
to the session (navigation, the login chain, the capture loop) runs under
that context and stops with it.
*/
package session
