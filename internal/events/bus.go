package events

// Bus fans events out to subscribed views. Delivery is asynchronous and
// eventually consistent; subscribers must not assume ordering across
// different entity keys but receive events for the same key in publish
// order. Late joiners reconcile by pulling full state, not by replay.
type Bus interface {
	// Publish delivers the event to every current subscriber. It never
	// blocks the caller.
	Publish(event Event)

	// Subscribe registers a new subscriber. The caller must drain C() and
	// call Close() when done.
	Subscribe() *Subscription

	// Close shuts the bus down and closes all subscriptions.
	Close()
}

// Subscription is one subscriber's ordered event feed.
type Subscription struct {
	ch    chan Event
	close func()
}

// C returns the subscriber's event channel. It is closed when the
// subscription or the bus closes.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.close()
}
