package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const produceTimeout = 10 * time.Second

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string, clientID string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

func (c *Conf) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// ProduceMessage writes one record and waits for the broker acknowledgement.
func (c *Conf) ProduceMessage(topic string, key []byte, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()

	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing to %s: %w", topic, err)
	}
	return nil
}

func (c *Conf) Close() {
	c.client.Close()
}
