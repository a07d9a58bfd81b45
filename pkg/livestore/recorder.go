package livestore

import "github.com/vango-dev/livestore/pkg/observable"

// Recorder receives store metrics. pkg/metrics provides a Prometheus
// implementation.
type Recorder interface {
	observable.Recorder

	// RevisionBumped is called once per delivered batch per binding.
	RevisionBumped()
}
