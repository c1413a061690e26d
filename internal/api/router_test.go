package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/api"
	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/metrics"
	"github.com/aquagrid/approval-engine/internal/repository"
	"github.com/aquagrid/approval-engine/internal/service"
	"github.com/aquagrid/approval-engine/internal/upstream"
)

type testServer struct {
	client    *upstream.MockClient
	decisions *repository.MockDecisionRepository
	handler   http.Handler
}

func newTestServer() *testServer {
	client := upstream.NewMockClient()
	store := cache.NewMemory(client.FetchCollection, time.Minute)
	decisions := repository.NewMockDecisionRepository()
	m := metrics.New(prometheus.NewRegistry())
	logger := zap.NewNop()

	queue := service.NewQueueService(store, client, m, logger)
	dispatch := service.NewDecisionService(store, client, decisions, m, logger)

	return &testServer{
		client:    client,
		decisions: decisions,
		handler:   api.NewRouter(queue, dispatch, prometheus.NewRegistry(), []string{"*"}, logger),
	}
}

func (ts *testServer) seed() {
	ts.client.SetCollection(upstream.PartitionConsumption, []domain.Record{
		{"id": float64(42), "status": "pending", "billMonth": "2024-03", "consumption": float64(15), "userId": float64(7), "createdAt": "2024-03-10T08:00:00Z"},
	})
	ts.client.SetCollection(upstream.PartitionUsers, []domain.Record{
		{"id": float64(7), "name": "Jane Doe", "account": "ACC-7", "status": "active"},
	})
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "ok" || body["service"] != "approval-engine" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}

func TestListApprovals(t *testing.T) {
	ts := newTestServer()
	ts.seed()

	rec := ts.do(t, http.MethodGet, "/api/v1/approvals", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)

	counts, _ := body["counts"].(map[string]any)
	if counts["total"] != float64(1) || counts["consumption"] != float64(1) {
		t.Fatalf("unexpected counts: %v", counts)
	}
	data, _ := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected one item, got %v", data)
	}
	item, _ := data[0].(map[string]any)
	if item["id"] != "consumption-42" || item["summary"] != "2024-03 - Jane Doe" {
		t.Fatalf("unexpected item: %v", item)
	}
}

func TestGetApproval(t *testing.T) {
	ts := newTestServer()
	ts.seed()

	rec := ts.do(t, http.MethodGet, "/api/v1/approvals/consumption-42", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["stale"] != false {
		t.Fatalf("expected fresh detail, got %v", body["stale"])
	}
	comparison, _ := body["comparison"].(map[string]any)
	if comparison["creation"] != true {
		t.Fatalf("no prior snapshot means creation mode, got %v", comparison)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/approvals/consumption-999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDecideEndpoint(t *testing.T) {
	headers := func(reviewer string) map[string]string {
		h := map[string]string{"Content-Type": "application/json"}
		if reviewer != "" {
			h["X-Reviewer-ID"] = reviewer
		}
		return h
	}

	t.Run("happy path", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":"approve","comments":"ok"}`, headers("admin-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if decode(t, rec)["outcome"] != "applied" {
			t.Fatal("expected applied outcome")
		}
		if ops := ts.client.CallOps(); len(ops) != 1 || ops[0] != "approve-consumption" {
			t.Fatalf("unexpected mutations: %v", ops)
		}
		if ts.decisions.Count() != 1 {
			t.Fatal("expected decision recorded in history")
		}
	})

	t.Run("missing reviewer header", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":"approve"}`, headers(""))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if len(ts.client.Calls) != 0 {
			t.Fatal("no mutation may be dispatched without a reviewer")
		}
	})

	t.Run("invalid decision value", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":"escalate"}`, headers("admin-1"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":`, headers("admin-1"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("already reviewed reports success", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()
		ts.client.MutationErr = &upstream.Error{StatusCode: 409, Message: "already reviewed"}

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":"approve"}`, headers("admin-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if decode(t, rec)["outcome"] != "already-reviewed" {
			t.Fatal("expected already-reviewed outcome")
		}
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		ts := newTestServer()
		ts.seed()
		ts.client.MutationErr = &upstream.Error{StatusCode: 503, Message: "unavailable"}

		rec := ts.do(t, http.MethodPost, "/api/v1/approvals/consumption-42/decision",
			`{"decision":"approve"}`, headers("admin-1"))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
	})
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer()
	seedEntry := &domain.DecisionEntry{
		ID: "e1", Kind: domain.KindConsumption, SourceID: "42",
		Summary: "2024-03 - Jane Doe", Decision: domain.DecisionApprove,
		Reviewer: "admin-1", DecidedAt: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := ts.decisions.Record(context.Background(), seedEntry); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/history?kind=consumption&decision=approve&q=jane", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["total"] != float64(1) {
		t.Fatalf("expected one match, got %v", body["total"])
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/history?decision=reject", "", nil)
	if body := decode(t, rec); body["total"] != float64(0) {
		t.Fatalf("expected no matches, got %v", body["total"])
	}
}

func TestMetricsSnapshot(t *testing.T) {
	ts := newTestServer()
	ts.seed()

	rec := ts.do(t, http.MethodGet, "/api/v1/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	depth, _ := body["queue_depth"].(map[string]any)
	if depth["total"] != float64(1) {
		t.Fatalf("unexpected snapshot: %v", body)
	}
}
