package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/secmon-lab/trustflow/pkg/controller/http"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/repository/memory"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
	"github.com/secmon-lab/trustflow/pkg/service/eventlog"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

type capturingRecorder struct {
	mu     sync.Mutex
	events []*model.ActivityEvent
}

func (r *capturingRecorder) Record(ctx context.Context, ev *model.ActivityEvent) bool {
	meta := model.RequestMetaFromContext(ctx)
	ev.UserID = meta.UserID
	ev.CorrelationID = meta.CorrelationID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

type testEnv struct {
	server   http.Handler
	repo     *memory.Memory
	log      *eventlog.Memory
	recorder *capturingRecorder
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.New()
	gt.NoError(t, repo.Lookup().SaveMany(context.Background(), []*model.Lookup{
		{ID: "open", Kind: types.LookupKindStatus, Name: "Open"},
		{ID: "closed", Kind: types.LookupKindStatus, Name: "Closed"},
		{ID: "bug", Kind: types.LookupKindType, Name: "Bug"},
		{ID: "u-1", Kind: types.LookupKindUser, Name: "alice"},
	})).Required()

	log := eventlog.NewMemory()
	recorder := &capturingRecorder{}
	uc := usecase.New(repo,
		usecase.WithAuditRecorder(recorder),
		usecase.WithActivityPublisher(activity.NewPublisher(log)),
		usecase.WithActivityTailer(activity.NewConsumer(log)),
	)

	return &testEnv{
		server:   httpctrl.New(uc),
		repo:     repo,
		log:      log,
		recorder: recorder,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpctrl.UserIDHeader, "u-1")
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)

	var env envelope
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &env)).Required()
	return w.Code, &env
}

func TestHealth(t *testing.T) {
	env := setup(t)
	status, resp := env.do(t, http.MethodGet, "/health", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	gt.Bool(t, resp.Success).True()
}

func TestIssueAPI(t *testing.T) {
	env := setup(t)

	status, resp := env.do(t, http.MethodPost, "/api/issues", map[string]any{
		"title":     "Login fails",
		"projectId": "p-1",
		"typeId":    "bug",
		"statusId":  "open",
	})
	gt.Number(t, status).Equal(http.StatusCreated)
	gt.Bool(t, resp.Success).True()

	var created model.IssueView
	gt.NoError(t, json.Unmarshal(resp.Data, &created)).Required()
	gt.Value(t, created.HumanID).Equal("BUG-1")
	gt.Value(t, created.Reporter).Equal(model.LookupRef{ID: "u-1", Name: "alice"})

	status, resp = env.do(t, http.MethodGet, "/api/issues/"+created.ID.String(), nil)
	gt.Number(t, status).Equal(http.StatusOK)

	status, resp = env.do(t, http.MethodGet, "/api/issues?project_id=p-1", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	var list []model.IssueView
	gt.NoError(t, json.Unmarshal(resp.Data, &list)).Required()
	gt.Array(t, list).Length(1)

	status, resp = env.do(t, http.MethodGet, "/api/issues/user/u-1/reported", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	gt.NoError(t, json.Unmarshal(resp.Data, &list)).Required()
	gt.Array(t, list).Length(1)

	status, resp = env.do(t, http.MethodGet, "/api/issues/user/u-1/assigned", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	gt.NoError(t, json.Unmarshal(resp.Data, &list)).Required()
	gt.Array(t, list).Length(0)

	status, resp = env.do(t, http.MethodPut, "/api/issues/"+created.ID.String()+"/status", map[string]any{"statusId": "closed"})
	gt.Number(t, status).Equal(http.StatusOK)
	var updated model.IssueView
	gt.NoError(t, json.Unmarshal(resp.Data, &updated)).Required()
	gt.Value(t, updated.Status.Name).Equal("Closed")

	status, _ = env.do(t, http.MethodGet, "/api/issues/analytics/project-wise", nil)
	gt.Number(t, status).Equal(http.StatusOK)

	status, _ = env.do(t, http.MethodDelete, "/api/issues/"+created.ID.String(), nil)
	gt.Number(t, status).Equal(http.StatusOK)

	status, resp = env.do(t, http.MethodGet, "/api/issues/"+created.ID.String(), nil)
	gt.Number(t, status).Equal(http.StatusNotFound)
	gt.Bool(t, resp.Success).False()

	env.recorder.mu.Lock()
	defer env.recorder.mu.Unlock()
	gt.Array(t, env.recorder.events).Length(3)
	for _, ev := range env.recorder.events {
		gt.Value(t, ev.UserID).Equal("u-1")
		gt.Value(t, ev.CorrelationID).NotEqual("")
	}
}

func TestIssueAPIErrors(t *testing.T) {
	env := setup(t)

	t.Run("missing type is a bad request", func(t *testing.T) {
		status, resp := env.do(t, http.MethodPost, "/api/issues", map[string]any{"title": "x", "projectId": "p-1"})
		gt.Number(t, status).Equal(http.StatusBadRequest)
		gt.Bool(t, resp.Success).False()
	})

	t.Run("unknown status is a bad request", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPut, "/api/issues/any/status", map[string]any{"statusId": "gone"})
		gt.Number(t, status).Equal(http.StatusBadRequest)
	})

	t.Run("status update of a missing issue", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPut, "/api/issues/missing/status", map[string]any{"statusId": "closed"})
		gt.Number(t, status).Equal(http.StatusNotFound)
	})
}

func TestActivityAPI(t *testing.T) {
	env := setup(t)

	for _, desc := range []string{"first", "second", "third"} {
		status, _ := env.do(t, http.MethodPost, "/api/activity", map[string]any{
			"timestamp":   time.Now().UTC(),
			"category":    "issue",
			"entityType":  "issue",
			"action":      "create",
			"description": desc,
		})
		gt.Number(t, status).Equal(http.StatusAccepted)
	}

	status, resp := env.do(t, http.MethodGet, "/api/activity/recent?count=2", nil)
	gt.Number(t, status).Equal(http.StatusOK)

	var summaries []model.ActivitySummary
	gt.NoError(t, json.Unmarshal(resp.Data, &summaries)).Required()
	gt.Array(t, summaries).Length(2)
	gt.Value(t, summaries[0].Description).Equal("second")
	gt.Value(t, summaries[1].Description).Equal("third")
	gt.Value(t, summaries[1].User).Equal("alice")
	gt.Value(t, summaries[1].RelativeAge).Equal("0 minute ago")

	status, _ = env.do(t, http.MethodGet, "/api/activity/recent?count=0", nil)
	gt.Number(t, status).Equal(http.StatusBadRequest)

	status, _ = env.do(t, http.MethodPost, "/api/activity", map[string]any{"description": "no action"})
	gt.Number(t, status).Equal(http.StatusBadRequest)
}

func TestActivityAPIUnavailableLog(t *testing.T) {
	env := setup(t)
	gt.NoError(t, env.log.Close()).Required()

	status, resp := env.do(t, http.MethodPost, "/api/activity", map[string]any{
		"category":    "issue",
		"entityType":  "issue",
		"action":      "create",
		"description": "lost",
	})
	gt.Number(t, status).Equal(http.StatusServiceUnavailable)
	gt.Value(t, resp.Message).Equal("Service Unavailable")
}

func TestLogsAPI(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	gt.NoError(t, env.repo.Activity().Put(ctx, &model.ActivityEvent{
		ID:          "ev-1",
		Timestamp:   time.Now().UTC().Add(-2 * time.Hour),
		UserID:      "u-1",
		Category:    types.ActivityCategoryIssue,
		EntityType:  types.EntityTypeIssue,
		Action:      types.ActivityActionCreate,
		Description: "created BUG-1",
		Status:      types.ActivityStatusSuccess,
	})).Required()

	status, resp := env.do(t, http.MethodGet, "/api/logs?limit=10", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	var logs []model.ActivityEvent
	gt.NoError(t, json.Unmarshal(resp.Data, &logs)).Required()
	gt.Array(t, logs).Length(1)

	status, resp = env.do(t, http.MethodGet, "/api/logs/user?id=u-1", nil)
	gt.Number(t, status).Equal(http.StatusOK)
	var summaries []model.ActivitySummary
	gt.NoError(t, json.Unmarshal(resp.Data, &summaries)).Required()
	gt.Array(t, summaries).Length(1)
	gt.Value(t, summaries[0].RelativeAge).Equal("2 hours ago")

	status, _ = env.do(t, http.MethodGet, "/api/logs/user", nil)
	gt.Number(t, status).Equal(http.StatusBadRequest)

	status, _ = env.do(t, http.MethodGet, "/api/logs/recent?count=abc", nil)
	gt.Number(t, status).Equal(http.StatusBadRequest)
}
