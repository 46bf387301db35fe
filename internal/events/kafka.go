package events

import (
	"context"
	"encoding/json"
)

// Broker is the transport side of publishing, satisfied by the Kafka
// producer in pkg/broker.
type Broker interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaPublisher serializes events as JSON and keys them by event type
// so consumers see per-type ordering.
type KafkaPublisher struct {
	broker Broker
}

func NewKafkaPublisher(broker Broker) *KafkaPublisher {
	return &KafkaPublisher{broker: broker}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.broker.Publish(ctx, []byte(event.EventType), value)
}
