package notify

// Fanout dispatches to several sinks. Send reports success when at least
// one sink delivered, so a dead webhook does not suppress desktop toasts
// (or endlessly re-fire thresholds that did reach the user).
type Fanout []Sink

// Send delivers to every sink.
func (f Fanout) Send(n Notification) bool {
	delivered := false
	for _, sink := range f {
		if sink.Send(n) {
			delivered = true
		}
	}
	return delivered
}
