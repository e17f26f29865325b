package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

// Publisher appends activity events to the event log
type Publisher struct {
	log interfaces.EventLog
}

func NewPublisher(log interfaces.EventLog) *Publisher {
	return &Publisher{log: log}
}

// Publish validates and encodes ev, appends it and returns once the log acknowledged the append.
// A missing ID or timestamp is filled in. Failed appends are not retried.
func (p *Publisher) Publish(ctx context.Context, ev *model.ActivityEvent) error {
	if ev.ID == "" {
		ev.ID = model.NewActivityEventID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	if err := ev.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidEvent, err.Error(), goerr.V("id", ev.ID))
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return goerr.Wrap(err, "failed to encode activity event", goerr.V("id", ev.ID))
	}

	offset, err := p.log.Append(ctx, raw)
	if err != nil {
		return goerr.Wrap(fmt.Errorf("%w: %w", ErrDelivery, err), "failed to publish activity event",
			goerr.V("id", ev.ID),
			goerr.V("action", ev.Action))
	}

	logging.From(ctx).Debug("activity event published",
		"id", ev.ID,
		"offset", offset,
		"action", ev.Action)
	return nil
}
