// Package broker wraps the Kafka producer and consumer used by the vote
// pipeline. Events are keyed by poll id so all votes for one poll land on one
// partition and are consumed in publish order.
package broker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/livepolls/polling-service/internal/models"
)

// Publisher writes vote events to the poll-votes topic. A single Publisher is
// shared by all ingestion handlers; kafka-go writers are safe for concurrent
// use.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka writer for the given topic. The Hash balancer
// maps equal keys to equal partitions, which is what gives per-poll ordering.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishVote enqueues one vote event, keyed by poll id. The call returns
// once the broker has accepted the write durably; it is attempted at most
// once and never waits for aggregation.
func (p *Publisher) PublishVote(ctx context.Context, ev models.VoteEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.PollID),
		Value: value,
	}); err != nil {
		return err
	}

	p.logger.Info("vote published", "poll_id", ev.PollID, "option_id", ev.OptionID)
	return nil
}

// Close flushes and shuts down the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewVoteReader creates a consumer-group reader for the vote topic.
// StartOffset FirstOffset replays retained history when the group is new,
// matching fromBeginning subscribe semantics.
func NewVoteReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}
