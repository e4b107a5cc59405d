package metrics

// ListenerMetrics provides observability for a listener service.
//
// Implementations collect lifecycle transitions and connection counts. The
// interface is optional: a listener built without metrics uses
// NewNoopListenerMetrics, which has zero overhead.
//
// Example usage:
//
//	reg := metrics.NewRegistry()
//	svc, err := listener.NewBuilder().
//	    Handler(factory).
//	    Metrics(prometheus.NewListenerMetrics(reg)).
//	    Build()
type ListenerMetrics interface {
	// RecordStart counts a successful bind (Idle -> Running).
	RecordStart()

	// RecordStop counts a completed stop (Running -> Idle).
	RecordStop()

	// RecordBindFailure counts a Start that failed to bind.
	RecordBindFailure()

	// RecordAcceptError counts Accept errors that did not stop the listener.
	RecordAcceptError()

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed counts connections closed by Stop after the
	// shutdown timeout expired.
	RecordConnectionForceClosed()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)
}

// NewNoopListenerMetrics returns a ListenerMetrics that records nothing.
func NewNoopListenerMetrics() ListenerMetrics {
	return noopListenerMetrics{}
}

type noopListenerMetrics struct{}

func (noopListenerMetrics) RecordStart()                 {}
func (noopListenerMetrics) RecordStop()                  {}
func (noopListenerMetrics) RecordBindFailure()           {}
func (noopListenerMetrics) RecordAcceptError()           {}
func (noopListenerMetrics) RecordConnectionAccepted()    {}
func (noopListenerMetrics) RecordConnectionClosed()      {}
func (noopListenerMetrics) RecordConnectionForceClosed() {}
func (noopListenerMetrics) SetActiveConnections(int32)   {}
