package metrics

import "time"

// Recorder receives ledger and transport measurements.
type Recorder interface {
	// ObserveLedgerOperation records one create/update/delete call and its outcome.
	ObserveLedgerOperation(op, outcome string, duration time.Duration)
	// IncPublishFailure counts an event that could not be published.
	IncPublishFailure(topic string)
	// ObserveHTTPRequest records one served request.
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// NoOp discards every measurement.
type NoOp struct{}

func (NoOp) ObserveLedgerOperation(op, outcome string, duration time.Duration) {}

func (NoOp) IncPublishFailure(topic string) {}

func (NoOp) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
