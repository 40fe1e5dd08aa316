package dispatch

import "github.com/ethereum/go-ethereum/event"

// Emitter carries the confirmation and error events of one submission.
// Sends block until every current subscriber has taken the event or
// unsubscribed, and return the number of subscribers reached; a send with no
// subscribers left is a no-op.
type Emitter struct {
	confirmations event.FeedOf[Confirmation]
	failures      event.FeedOf[error]
}

// NewEmitter returns an emitter with no subscribers.
func NewEmitter() *Emitter {
	return new(Emitter)
}

// Confirm publishes a confirmation.
func (e *Emitter) Confirm(c Confirmation) int {
	return e.confirmations.Send(c)
}

// Fail publishes an error. A nil error is dropped.
func (e *Emitter) Fail(err error) int {
	if err == nil {
		return 0
	}
	return e.failures.Send(err)
}

// SubscribeConfirmations registers ch for confirmation events.
func (e *Emitter) SubscribeConfirmations(ch chan<- Confirmation) event.Subscription {
	return e.confirmations.Subscribe(ch)
}

// SubscribeFailures registers ch for error events.
func (e *Emitter) SubscribeFailures(ch chan<- error) event.Subscription {
	return e.failures.Subscribe(ch)
}
