package observable

import "time"

// Recorder receives delivery metrics. pkg/metrics provides a Prometheus
// implementation.
type Recorder interface {
	SubscriptionOpened()
	SubscriptionClosed()
	BatchDelivered(changes, subscribers int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) SubscriptionOpened()                    {}
func (nopRecorder) SubscriptionClosed()                    {}
func (nopRecorder) BatchDelivered(int, int, time.Duration) {}
