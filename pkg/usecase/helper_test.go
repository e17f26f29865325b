package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/repository/memory"
)

// spyRepo counts lookup resolutions and can make issue persistence fail
type spyRepo struct {
	*memory.Memory
	lookup *spyLookup
	issue  *failingIssue
}

func newSpyRepo(t *testing.T) *spyRepo {
	t.Helper()
	mem := memory.New()
	repo := &spyRepo{
		Memory: mem,
		lookup: &spyLookup{LookupRepository: mem.Lookup(), calls: map[types.LookupKind]int{}},
		issue:  &failingIssue{IssueRepository: mem.Issue()},
	}
	seedLookups(t, repo)
	return repo
}

func (r *spyRepo) Lookup() interfaces.LookupRepository { return r.lookup }
func (r *spyRepo) Issue() interfaces.IssueRepository { return r.issue }

type spyLookup struct {
	interfaces.LookupRepository

	mu    sync.Mutex
	calls map[types.LookupKind]int
	err   error
}

func (s *spyLookup) GetByIDs(ctx context.Context, kind types.LookupKind, ids []string) (map[string]*model.Lookup, error) {
	s.mu.Lock()
	s.calls[kind]++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.LookupRepository.GetByIDs(ctx, kind, ids)
}

func (s *spyLookup) Calls(kind types.LookupKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func (s *spyLookup) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *spyLookup) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[types.LookupKind]int{}
}

type failingIssue struct {
	interfaces.IssueRepository
	createErr error
}

func (f *failingIssue) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.IssueRepository.Create(ctx, issue)
}

func seedLookups(t *testing.T, repo *spyRepo) {
	t.Helper()
	lookups := []*model.Lookup{
		{ID: "st-open", Kind: types.LookupKindStatus, Name: "Open"},
		{ID: "st-progress", Kind: types.LookupKindStatus, Name: "In Progress"},
		{ID: "st-closed", Kind: types.LookupKindStatus, Name: "Closed"},
		{ID: "st-resolved", Kind: types.LookupKindStatus, Name: "Resolved"},
		{ID: "pr-high", Kind: types.LookupKindPriority, Name: "High"},
		{ID: "ty-bug", Kind: types.LookupKindType, Name: "Bug"},
		{ID: "ty-feature", Kind: types.LookupKindType, Name: "Feature Request"},
		{ID: "ty-blank", Kind: types.LookupKindType, Name: "!!!"},
		{ID: "sv-major", Kind: types.LookupKindSeverity, Name: "Major"},
		{ID: "u-alice", Kind: types.LookupKindUser, Name: "alice"},
		{ID: "u-bob", Kind: types.LookupKindUser, Name: "bob"},
	}
	gt.NoError(t, repo.Memory.Lookup().SaveMany(context.Background(), lookups)).Required()
}

func newIssueInput(title string) *model.Issue {
	return &model.Issue{
		Title:           title,
		Description:     "steps to reproduce",
		ProjectID:       "proj-1",
		ReporterUserID:  "u-alice",
		AssigneeUserIDs: []string{"u-bob", "u-bob"},
		StatusID:        "st-open",
		PriorityID:      "pr-high",
		TypeID:          "ty-bug",
		SeverityID:      "sv-major",
	}
}

// fakeRecorder keeps recorded events
type fakeRecorder struct {
	mu     sync.Mutex
	events []*model.ActivityEvent
}

func (r *fakeRecorder) Record(ctx context.Context, ev *model.ActivityEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *fakeRecorder) Events() []*model.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.ActivityEvent(nil), r.events...)
}

// fakeNotifier keeps notifications as text lines
type fakeNotifier struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (n *fakeNotifier) IssueCreated(ctx context.Context, issue *model.IssueView) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, "created "+issue.HumanID)
	return n.err
}

func (n *fakeNotifier) IssueStatusChanged(ctx context.Context, issue *model.IssueView, oldStatus, newStatus string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, fmt.Sprintf("status %s %s->%s", issue.HumanID, oldStatus, newStatus))
	return n.err
}

func (n *fakeNotifier) Lines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.lines...)
}
