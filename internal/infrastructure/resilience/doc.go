/*
Package resilience provides a circuit breaker for outbound calls.

The audit forwarder posts access events to an external log service. When
that service is down the breaker opens after a run of consecutive failures
and rejects calls with ErrCircuitOpen until the cooldown elapses, so a dead
collector never slows session start-up.

	breaker := resilience.New("audit-forwarder", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})
	err := breaker.Execute(ctx, func(ctx context.Context) error {
		return post(ctx, event)
	})

	Closed --[threshold failures]--> Open --[cooldown]--> Half-Open
	Half-Open --[probe ok]--> Closed
	Half-Open --[probe fails]--> Open
*/
package resilience
