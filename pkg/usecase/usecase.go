package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

// AuditRecorder receives audit events of business operations. It must not block.
type AuditRecorder interface {
	Record(ctx context.Context, ev *model.ActivityEvent) bool
}

// ActivityPublisher appends an activity event and waits for the acknowledgment
type ActivityPublisher interface {
	Publish(ctx context.Context, ev *model.ActivityEvent) error
}

// ActivityTailer reads the latest events of the activity topic
type ActivityTailer interface {
	TailRecent(ctx context.Context, count int, perRecordTimeout time.Duration) ([]*model.ActivityEvent, error)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *model.ActivityEvent) bool { return false }

type UseCases struct {
	repo      interfaces.Repository
	recorder  AuditRecorder
	notifier  interfaces.Notifier
	publisher ActivityPublisher
	tailer    ActivityTailer
	clock     func() time.Time

	Issue    *IssueUseCase
	Activity *ActivityUseCase
	Lookup   *LookupUseCase
}

type Option func(*UseCases)

// WithAuditRecorder sets the audit hook of issue operations
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(uc *UseCases) {
		uc.recorder = recorder
	}
}

// WithNotifier sets the chat notifier of issue operations
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithActivityPublisher(publisher ActivityPublisher) Option {
	return func(uc *UseCases) {
		uc.publisher = publisher
	}
}

func WithActivityTailer(tailer ActivityTailer) Option {
	return func(uc *UseCases) {
		uc.tailer = tailer
	}
}

// WithClock replaces time.Now for relative age rendering
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		recorder: nopRecorder{},
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Issue = NewIssueUseCase(repo, uc.recorder, uc.notifier)
	uc.Activity = NewActivityUseCase(repo, uc.publisher, uc.tailer, uc.clock)
	uc.Lookup = NewLookupUseCase(repo)

	return uc
}

// LookupRepository exposes the lookup store for request-scoped caches
func (uc *UseCases) LookupRepository() interfaces.LookupRepository {
	return uc.repo.Lookup()
}
