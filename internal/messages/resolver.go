package messages

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// Retrieval modes.
const (
	ModeLast10 = "last_10"
	ModePeriod = "period"
)

const (
	lastMessagesLimit = 10
	historyPageSize   = 100
)

// Resolver maps user-chosen source ids to entities and fetches their
// messages under a retrieval policy. All failures degrade to nil/empty
// results with a log record; nothing propagates to callers.
type Resolver struct {
	log *logrus.Logger
}

func NewResolver(log *logrus.Logger) *Resolver {
	return &Resolver{log: log}
}

// ResolveSource resolves a source id to an entity. The sign carries the
// peer kind: negative ids are user peers (looked up by absolute value),
// positive ids are channel or group peers, zero is invalid. Returns nil
// on any failure.
func (r *Resolver) ResolveSource(ctx context.Context, conn telegram.Conn, sourceID int64) telegram.Entity {
	var (
		entity telegram.Entity
		err    error
	)
	switch {
	case sourceID < 0:
		entity, err = conn.LookupUser(ctx, -sourceID)
	case sourceID > 0:
		entity, err = conn.LookupChannel(ctx, sourceID)
	default:
		r.log.Error("invalid source id 0")
		return nil
	}
	if err != nil {
		r.log.WithError(err).WithField("source_id", sourceID).Error("failed to resolve source")
		return nil
	}
	return entity
}

// FetchMessages retrieves entity's messages under mode.
//
//   - last_10: the most recent 10 messages, newest-first, text-only.
//   - period: messages with non-empty text whose timestamps fall within
//     [periodStart, periodEnd] (calendar dates, midnight bounds), in
//     chronological order; iteration walks back from periodEnd and
//     stops at the first timestamp preceding periodStart.
//
// Any other mode, or period with a missing bound, yields an empty
// sequence. Iteration failures are logged and yield whatever was
// accumulated.
func (r *Resolver) FetchMessages(ctx context.Context, conn telegram.Conn, entity telegram.Entity, mode string, periodStart, periodEnd *time.Time) []telegram.Message {
	switch {
	case mode == ModeLast10:
		return r.fetchLast(ctx, conn, entity)
	case mode == ModePeriod && periodStart != nil && periodEnd != nil:
		return r.fetchPeriod(ctx, conn, entity, *periodStart, *periodEnd)
	default:
		return []telegram.Message{}
	}
}

func (r *Resolver) fetchLast(ctx context.Context, conn telegram.Conn, entity telegram.Entity) []telegram.Message {
	batch, err := conn.History(ctx, entity, telegram.HistoryRequest{Limit: lastMessagesLimit})
	if err != nil {
		r.log.WithError(err).Error("failed to fetch messages")
		return []telegram.Message{}
	}

	out := make([]telegram.Message, 0, len(batch))
	for _, m := range batch {
		if m.Text == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *Resolver) fetchPeriod(ctx context.Context, conn telegram.Conn, entity telegram.Entity, start, end time.Time) []telegram.Message {
	startBound := midnight(start)
	endBound := midnight(end).AddDate(0, 0, 1) // exclusive: whole periodEnd day included

	// Collected newest-first while paging backward from endBound.
	var collected []telegram.Message
	req := telegram.HistoryRequest{OffsetDate: endBound, Limit: historyPageSize}

paging:
	for {
		batch, err := conn.History(ctx, entity, req)
		if err != nil {
			r.log.WithError(err).Error("message iteration failed, returning partial results")
			break
		}
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			if m.Date.Before(startBound) {
				break paging
			}
			if m.Text == "" || !m.Date.Before(endBound) {
				continue
			}
			collected = append(collected, m)
		}
		if len(batch) < historyPageSize {
			break
		}
		req = telegram.HistoryRequest{OffsetID: batch[len(batch)-1].ID, Limit: historyPageSize}
	}

	// Reverse to chronological order.
	out := make([]telegram.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		out = append(out, collected[i])
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
