// Package aggregator consumes vote events from the broker in delivery order,
// applies them to the aggregate store, and pushes refreshed snapshots to the
// broadcast hub. It is the only writer of vote counters.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/livepolls/polling-service/internal/models"
)

// leaderboardLimit caps the cross-poll leaderboard broadcast.
const leaderboardLimit = 10

// defaultOpTimeout bounds the store work for one event.
const defaultOpTimeout = 10 * time.Second

// VoteConsumer is the broker read side. *kafka.Reader satisfies it.
type VoteConsumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AggregateStore is the counter store capability the aggregator needs.
type AggregateStore interface {
	IncrementVote(ctx context.Context, optionID string) (int64, error)
	PollSnapshot(ctx context.Context, pollID string) ([]models.OptionResult, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Broadcaster fans a snapshot out to all live subscribers.
type Broadcaster interface {
	BroadcastPollUpdate(pollID string, results []models.OptionResult)
	BroadcastLeaderboardUpdate(entries []models.LeaderboardEntry)
}

// Aggregator runs a single sequential processing loop. Sequential consumption
// per partition is what preserves same-poll vote ordering.
type Aggregator struct {
	consumer  VoteConsumer
	store     AggregateStore
	hub       Broadcaster
	logger    *slog.Logger
	opTimeout time.Duration
}

// New wires an aggregator over the given consumer, store, and hub.
func New(consumer VoteConsumer, store AggregateStore, hub Broadcaster, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		consumer:  consumer,
		store:     store,
		hub:       hub,
		logger:    logger,
		opTimeout: defaultOpTimeout,
	}
}

// Run consumes until ctx is cancelled. The offset for an event is committed
// only after the event has been fully processed (or deliberately skipped), so
// a crash mid-event causes redelivery rather than silent loss. Redelivered
// events double-count; the vote event carries no id to deduplicate on.
//
// Fetch or commit failures other than cancellation are fatal and abort the
// loop; per-event processing failures are not.
func (a *Aggregator) Run(ctx context.Context) error {
	a.logger.Info("aggregator started")
	for {
		m, err := a.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				a.logger.Info("aggregator draining")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		// Poison-pill isolation: a failing event is logged and skipped,
		// its offset still committed, and the loop moves on. The vote's
		// effect on the counter is lost; there is no dead-letter sink.
		if err := a.process(m.Value); err != nil {
			a.logger.Error("vote processing failed",
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}

		if err := a.consumer.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offsets: %w", err)
		}
	}
}

// process applies one vote event: atomic increment, then fresh poll snapshot
// and leaderboard broadcasts. Reads are taken after the increment so a
// subscriber never observes a broadcast ahead of store state.
//
// The timeout context is detached from the run context so an in-flight event
// completes even when shutdown cancels the fetch loop.
func (a *Aggregator) process(value []byte) error {
	var ev models.VoteEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("decode vote event: %w", err)
	}
	if ev.PollID == "" || ev.OptionID == "" {
		return fmt.Errorf("vote event missing pollId or optionId")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
	defer cancel()

	count, err := a.store.IncrementVote(ctx, ev.OptionID)
	if err != nil {
		return fmt.Errorf("increment option %s: %w", ev.OptionID, err)
	}
	a.logger.Info("vote applied", "poll_id", ev.PollID, "option_id", ev.OptionID, "vote_count", count)

	results, err := a.store.PollSnapshot(ctx, ev.PollID)
	if err != nil {
		return fmt.Errorf("poll snapshot %s: %w", ev.PollID, err)
	}
	a.hub.BroadcastPollUpdate(ev.PollID, results)

	entries, err := a.store.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return fmt.Errorf("leaderboard snapshot: %w", err)
	}
	a.hub.BroadcastLeaderboardUpdate(entries)

	return nil
}
