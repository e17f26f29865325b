package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/utils/async"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

type IssueUseCase struct {
	repo     interfaces.Repository
	recorder AuditRecorder
	notifier interfaces.Notifier
}

func NewIssueUseCase(repo interfaces.Repository, recorder AuditRecorder, notifier interfaces.Notifier) *IssueUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &IssueUseCase{
		repo:     repo,
		recorder: recorder,
		notifier: notifier,
	}
}

// IssueFilter narrows ListIssues. Empty fields do not filter.
type IssueFilter struct {
	ProjectID      string
	ReporterUserID string
	AssigneeUserID string
	StatusID       string
}

func (f IssueFilter) options() []interfaces.ListIssueOption {
	var opts []interfaces.ListIssueOption
	if f.ProjectID != "" {
		opts = append(opts, interfaces.WithProjectID(f.ProjectID))
	}
	if f.ReporterUserID != "" {
		opts = append(opts, interfaces.WithReporter(f.ReporterUserID))
	}
	if f.AssigneeUserID != "" {
		opts = append(opts, interfaces.WithAssignee(f.AssigneeUserID))
	}
	if f.StatusID != "" {
		opts = append(opts, interfaces.WithStatusID(f.StatusID))
	}
	return opts
}

func validationError(msg string, values ...goerr.Option) error {
	return goerr.Wrap(ErrValidation, msg, values...)
}

func wrapIssueErr(err error, msg string, id model.IssueID) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(fmt.Errorf("%w: %w", ErrIssueNotFound, err), msg, goerr.V(IssueIDKey, id))
	}
	return goerr.Wrap(err, msg, goerr.V(IssueIDKey, id))
}

// CreateIssue mints a human readable ID from the issue type and persists the issue. ID, HumanID and
// timestamps of input are ignored. A sequence value allocated for an issue that then fails to persist is
// never reused.
func (uc *IssueUseCase) CreateIssue(ctx context.Context, input *model.Issue) (*model.IssueView, error) {
	if input == nil {
		return nil, validationError("issue is required")
	}
	if input.Title == "" {
		return nil, validationError("issue title is required")
	}
	if input.TypeID == "" {
		return nil, validationError("issue type is required")
	}
	if input.ProjectID == "" {
		return nil, validationError("issue project is required")
	}

	cache := lookupCache(ctx, uc.repo.Lookup())
	typeNames, err := cache.Resolve(ctx, types.LookupKindType, []string{input.TypeID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve issue type")
	}
	typeName, ok := typeNames[input.TypeID]
	if !ok {
		return nil, validationError("invalid issue type", goerr.V("type_id", input.TypeID))
	}

	category := types.NewIssueCategory(typeName)
	if err := category.Validate(); err != nil {
		return nil, validationError("issue type does not yield a category",
			goerr.V("type_name", typeName),
			goerr.V("reason", err.Error()))
	}

	seq, err := uc.repo.Counter().Next(ctx, category)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to allocate issue number", goerr.V(CategoryKey, category))
	}

	now := time.Now().UTC()
	issue := input.Copy()
	issue.ID = model.NewIssueID()
	issue.HumanID = category.HumanID(seq)
	issue.AssigneeUserIDs = model.UniqueStrings(issue.AssigneeUserIDs)
	issue.CreatedAt = now
	issue.UpdatedAt = now

	created, err := uc.repo.Issue().Create(ctx, issue)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create issue",
			goerr.V("human_id", issue.HumanID),
			goerr.V(CategoryKey, category))
	}

	views, err := Enrich(ctx, cache, []*model.Issue{created})
	if err != nil {
		return nil, err
	}
	view := views[0]

	logging.From(ctx).Info("issue created", "id", created.ID, "human_id", created.HumanID)

	uc.audit(ctx, types.ActivityActionCreate, created, "", "",
		fmt.Sprintf("Issue %s created: %s", created.HumanID, created.Title))
	uc.notify(ctx, func(ctx context.Context, n interfaces.Notifier) error {
		return n.IssueCreated(ctx, view)
	})

	return view, nil
}

func (uc *IssueUseCase) GetIssue(ctx context.Context, id model.IssueID) (*model.IssueView, error) {
	if id == "" {
		return nil, validationError("issue id is required")
	}

	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return nil, wrapIssueErr(err, "failed to get issue", id)
	}

	views, err := Enrich(ctx, lookupCache(ctx, uc.repo.Lookup()), []*model.Issue{issue})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListIssues returns the issues matching filter. The whole result is enriched in one pass.
func (uc *IssueUseCase) ListIssues(ctx context.Context, filter IssueFilter) ([]*model.IssueView, error) {
	issues, err := uc.repo.Issue().List(ctx, filter.options()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues",
			goerr.V("project_id", filter.ProjectID),
			goerr.V("status_id", filter.StatusID))
	}

	return Enrich(ctx, lookupCache(ctx, uc.repo.Lookup()), issues)
}

// EditIssue replaces the mutable fields of an existing issue. HumanID and CreatedAt are kept.
func (uc *IssueUseCase) EditIssue(ctx context.Context, input *model.Issue) (*model.IssueView, error) {
	if input == nil || input.ID == "" {
		return nil, validationError("issue id is required")
	}
	if input.Title == "" {
		return nil, validationError("issue title is required", goerr.V(IssueIDKey, input.ID))
	}

	issue := input.Copy()
	issue.AssigneeUserIDs = model.UniqueStrings(issue.AssigneeUserIDs)
	issue.UpdatedAt = time.Now().UTC()

	updated, err := uc.repo.Issue().Replace(ctx, issue)
	if err != nil {
		return nil, wrapIssueErr(err, "failed to edit issue", input.ID)
	}

	views, err := Enrich(ctx, lookupCache(ctx, uc.repo.Lookup()), []*model.Issue{updated})
	if err != nil {
		return nil, err
	}

	uc.audit(ctx, types.ActivityActionUpdate, updated, "", "",
		fmt.Sprintf("Issue %s updated", updated.HumanID))

	return views[0], nil
}

// UpdateIssueStatus sets the status of an issue. The target status must exist; no transition rules apply.
func (uc *IssueUseCase) UpdateIssueStatus(ctx context.Context, id model.IssueID, statusID string) (*model.IssueView, error) {
	if id == "" {
		return nil, validationError("issue id is required")
	}
	if statusID == "" {
		return nil, validationError("status id is required", goerr.V(IssueIDKey, id))
	}

	cache := lookupCache(ctx, uc.repo.Lookup())
	statuses, err := cache.Resolve(ctx, types.LookupKindStatus, []string{statusID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve status", goerr.V(StatusIDKey, statusID))
	}
	if _, ok := statuses[statusID]; !ok {
		return nil, validationError("status does not exist",
			goerr.V(IssueIDKey, id),
			goerr.V(StatusIDKey, statusID))
	}

	before, after, err := uc.repo.Issue().UpdateStatus(ctx, id, statusID)
	if err != nil {
		return nil, wrapIssueErr(err, "failed to update issue status", id)
	}

	views, err := Enrich(ctx, cache, []*model.Issue{before, after})
	if err != nil {
		return nil, err
	}
	oldStatus, view := views[0].Status.Name, views[1]
	newStatus := view.Status.Name

	uc.audit(ctx, types.ActivityActionStatusChange, after, oldStatus, newStatus,
		fmt.Sprintf("Issue %s status changed from %s to %s", after.HumanID, oldStatus, newStatus))
	uc.notify(ctx, func(ctx context.Context, n interfaces.Notifier) error {
		return n.IssueStatusChanged(ctx, view, oldStatus, newStatus)
	})

	return view, nil
}

func (uc *IssueUseCase) DeleteIssue(ctx context.Context, id model.IssueID) error {
	if id == "" {
		return validationError("issue id is required")
	}

	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		return wrapIssueErr(err, "failed to get issue", id)
	}

	if err := uc.repo.Issue().Delete(ctx, id); err != nil {
		return wrapIssueErr(err, "failed to delete issue", id)
	}

	uc.audit(ctx, types.ActivityActionDelete, issue, "", "",
		fmt.Sprintf("Issue %s deleted", issue.HumanID))

	return nil
}

// audit hands an event to the recorder. Failures surface only in logs.
func (uc *IssueUseCase) audit(ctx context.Context, action types.ActivityAction, issue *model.Issue, oldValue, newValue, description string) {
	uc.recorder.Record(ctx, &model.ActivityEvent{
		Category:    types.ActivityCategoryIssue,
		EntityType:  types.EntityTypeIssue,
		EntityID:    issue.ID.String(),
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
		Status:      types.ActivityStatusSuccess,
	})
}

func (uc *IssueUseCase) notify(ctx context.Context, fn func(ctx context.Context, n interfaces.Notifier) error) {
	if uc.notifier == nil {
		return
	}
	notifier := uc.notifier
	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := fn(ctx, notifier); err != nil {
			return goerr.Wrap(err, "failed to send issue notification")
		}
		return nil
	})
}
