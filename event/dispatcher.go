package event

import "github.com/vmihailenco/msgpack/v5"

// Dispatcher is the public entry point for publishing events: marshal once,
// hand off to the Publisher's scheduler.
type Dispatcher struct {
	publisher *Publisher
}

// NewDispatcher wraps an already-running Publisher.
func NewDispatcher(publisher *Publisher) *Dispatcher {
	return &Dispatcher{publisher: publisher}
}

// Publish serializes evt with msgpack and publishes it under name.
func (d *Dispatcher) Publish(name string, evt interface{}) error {
	payload, err := msgpack.Marshal(evt)
	if err != nil {
		return err
	}
	d.publisher.Publish(name, payload)
	return nil
}
