/*
Package tracing provides lightweight request tracing.

Every HTTP request and every inbound WebSocket message gets a span. Spans
carry a trace id that is propagated through X-Trace-ID and X-Span-ID
headers and through context, and are written to the structured log when
they finish. Session start logs carry the trace id of the message that
asked for them.

# Usage

	tracer := tracing.New("accessproxy", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "ws.start-session")
	span.SetTag("user_id", userID)
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
