package audit

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
)

// KafkaStore publishes audit events to a Kafka topic. It is write-only: the
// trail lives in the topic, and reads go through whatever consumes it.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects a producer to the given brokers.
func NewKafkaStore(brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaStore{client: client, topic: topic}, nil
}

// Append produces the event synchronously so Run's drain loop applies
// backpressure instead of buffering unbounded records.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID),
		Value: payload,
	}
	return s.client.ProduceSync(ctx, record).FirstErr()
}

// ListByUser is unsupported; the topic is consumed elsewhere.
func (s *KafkaStore) ListByUser(context.Context, string) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

func (s *KafkaStore) Close() {
	s.client.Close()
}
