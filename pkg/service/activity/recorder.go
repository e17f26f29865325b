package activity

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/utils/errutil"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

const (
	// DefaultQueueSize is the capacity of the recorder's outbound queue
	DefaultQueueSize = 256

	// DefaultDeliveryTimeout bounds publishing and persisting of a single event
	DefaultDeliveryTimeout = 10 * time.Second
)

// EventPublisher is the sink the recorder drains into
type EventPublisher interface {
	Publish(ctx context.Context, ev *model.ActivityEvent) error
}

// Recorder is the fire-and-forget audit hook. Record never blocks: events go into a bounded queue
// drained by one background goroutine. When the queue is full the new event is dropped with a warning.
// Delivery failures are logged and never returned to the caller of Record.
//
// Events are published to the event log and, when a store is configured, also persisted for the
// queryable log views.
type Recorder struct {
	publisher       EventPublisher
	store           interfaces.ActivityRepository
	queue           chan *model.ActivityEvent
	deliveryTimeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

type RecorderOption func(*Recorder)

// WithStore also persists every event to the activity repository
func WithStore(store interfaces.ActivityRepository) RecorderOption {
	return func(r *Recorder) {
		r.store = store
	}
}

// WithQueueSize overrides DefaultQueueSize
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan *model.ActivityEvent, n)
		}
	}
}

// WithDeliveryTimeout overrides DefaultDeliveryTimeout
func WithDeliveryTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.deliveryTimeout = d
		}
	}
}

func NewRecorder(publisher EventPublisher, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		publisher:       publisher,
		queue:           make(chan *model.ActivityEvent, DefaultQueueSize),
		deliveryTimeout: DefaultDeliveryTimeout,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record enqueues ev. Request metadata of ctx (user, IP, user agent, correlation id, source) fills
// the corresponding empty fields. It reports whether the event was accepted.
func (r *Recorder) Record(ctx context.Context, ev *model.ActivityEvent) bool {
	if ev.ID == "" {
		ev.ID = model.NewActivityEventID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	meta := model.RequestMetaFromContext(ctx)
	if ev.UserID == "" {
		ev.UserID = meta.UserID
	}
	if ev.IPAddress == "" {
		ev.IPAddress = meta.IPAddress
	}
	if ev.UserAgent == "" {
		ev.UserAgent = meta.UserAgent
	}
	if ev.CorrelationID == "" {
		ev.CorrelationID = meta.CorrelationID
	}
	if ev.Source == "" {
		ev.Source = meta.Source
	}

	select {
	case r.queue <- ev:
		return true
	default:
		logging.From(ctx).Warn("activity queue full, event dropped",
			"id", ev.ID,
			"action", ev.Action,
			"entity_id", ev.EntityID,
			"capacity", cap(r.queue))
		return false
	}
}

// Start begins draining the queue in a background goroutine
func (r *Recorder) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		logging.From(ctx).Info("activity recorder starting", "queue_size", cap(r.queue))
		go r.run(ctx)
	})
}

// Stop signals the recorder to flush queued events and waits until it finished or ctx is done
func (r *Recorder) Stop(ctx context.Context) {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})

	select {
	case <-r.doneCh:
		logging.From(ctx).Info("activity recorder stopped")
	case <-ctx.Done():
		logging.From(ctx).Warn("activity recorder stop timed out", "pending", len(r.queue))
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.doneCh)

	// delivery must not be canceled together with the server context
	deliverCtx := logging.With(context.Background(), logging.From(ctx))

	for {
		select {
		case ev := <-r.queue:
			r.deliver(deliverCtx, ev)

		case <-r.stopCh:
			for {
				select {
				case ev := <-r.queue:
					r.deliver(deliverCtx, ev)
				default:
					return
				}
			}
		}
	}
}

// deliver persists before publishing so that an unreachable broker does not hold back the log views.
// Each step gets its own deadline.
func (r *Recorder) deliver(ctx context.Context, ev *model.ActivityEvent) {
	if r.store != nil {
		putCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
		if err := r.store.Put(putCtx, ev); err != nil {
			_ = errutil.Handle(ctx, err, "failed to persist activity event")
		}
		cancel()
	}

	pubCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, ev); err != nil {
		_ = errutil.Handle(ctx, err, "failed to deliver activity event")
	}
}
