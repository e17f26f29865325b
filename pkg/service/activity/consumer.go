package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
	"github.com/secmon-lab/trustflow/pkg/utils/safe"
)

// Consumer reads snapshots of the most recent events. It keeps no state between calls.
type Consumer struct {
	log interfaces.EventLog
}

func NewConsumer(log interfaces.EventLog) *Consumer {
	return &Consumer{log: log}
}

// TailRecent reads up to count of the latest records, starting at max(high-count, low).
// Each read attempt waits at most perRecordTimeout; a timed out attempt is skipped, not fatal.
// Records that are empty, not a JSON object or undecodable are skipped, so fewer than count events
// may be returned. Events are returned in offset order.
func (c *Consumer) TailRecent(ctx context.Context, count int, perRecordTimeout time.Duration) ([]*model.ActivityEvent, error) {
	if count <= 0 {
		return nil, goerr.Wrap(ErrInvalidCount, "invalid tail count", goerr.V("count", count))
	}

	low, high, err := c.log.Watermarks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get watermarks")
	}

	start := max(high-int64(count), low)
	events := make([]*model.ActivityEvent, 0, min(int64(count), max(high-start, 0)))
	if start >= high {
		return events, nil
	}

	reader, err := c.log.Reader(ctx, start)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open event log reader", goerr.V("start", start))
	}
	defer safe.Close(ctx, reader, "start", start)

	logger := logging.From(ctx)
	for attempt := 0; attempt < count; attempt++ {
		rec, err := reader.Next(ctx, perRecordTimeout)
		if err != nil {
			if errors.Is(err, interfaces.ErrReadTimeout) {
				logger.Debug("activity read attempt timed out", "attempt", attempt, "timeout", perRecordTimeout)
				continue
			}
			return nil, goerr.Wrap(err, "failed to read activity record", goerr.V("attempt", attempt))
		}

		ev, ok := decodeRecord(rec.Value)
		if !ok {
			logger.Debug("skipped malformed activity record", "offset", rec.Offset, "size", len(rec.Value))
		} else {
			events = append(events, ev)
		}

		// the snapshot ends at the high watermark taken above
		if rec.Offset >= high-1 {
			break
		}
	}

	return events, nil
}

func decodeRecord(value []byte) (*model.ActivityEvent, bool) {
	trimmed := bytes.TrimLeft(value, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var ev model.ActivityEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, false
	}
	return &ev, true
}
