package stream

// Metrics is the subset of the service metrics the engine reports to.
type Metrics interface {
	RecordSessionStart(outcome string)
	IncSessionStops()
	RecordFrame(size int)
	IncCaptureFailures()
	RecordInteraction(kind, status string)
	RecordPageEvent(kind string)
	IncNavigationErrors()
}

type nopMetrics struct{}

func (nopMetrics) RecordSessionStart(string)        {}
func (nopMetrics) IncSessionStops()                 {}
func (nopMetrics) RecordFrame(int)                  {}
func (nopMetrics) IncCaptureFailures()              {}
func (nopMetrics) RecordInteraction(string, string) {}
func (nopMetrics) RecordPageEvent(string)           {}
func (nopMetrics) IncNavigationErrors()             {}
