package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquagrid/approval-engine/internal/upstream"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]string
}

func newBackend(t *testing.T, status int, response string) (*upstream.RESTClient, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return upstream.NewRESTClient(srv.URL, 2*time.Second, nil), &requests
}

func TestFetchCollection(t *testing.T) {
	client, requests := newBackend(t, http.StatusOK, `[{"id": 1, "status": "pending"}]`)

	records, err := client.FetchCollection(context.Background(), upstream.PartitionConsumption)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].String("status") != "pending" {
		t.Fatalf("unexpected records: %v", records)
	}
	if (*requests)[0].Path != "/api/consumptions" {
		t.Fatalf("unexpected path %q", (*requests)[0].Path)
	}
}

func TestFetchCollection_UnknownPartition(t *testing.T) {
	client, _ := newBackend(t, http.StatusOK, `[]`)
	if _, err := client.FetchCollection(context.Background(), "invoices"); err == nil {
		t.Fatal("expected error for unknown partition")
	}
}

func TestApproveConsumption_SendsReviewer(t *testing.T) {
	client, requests := newBackend(t, http.StatusOK, `{}`)

	err := client.ApproveConsumption(context.Background(), 42, "admin-1", "looks right")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := (*requests)[0]
	if req.Method != http.MethodPost || req.Path != "/api/consumptions/42/approve" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Body["approvedBy"] != "admin-1" || req.Body["comments"] != "looks right" {
		t.Fatalf("unexpected body %v", req.Body)
	}
}

func TestPublishRuleset(t *testing.T) {
	client, requests := newBackend(t, http.StatusOK, `{}`)

	if err := client.PublishRuleset(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := (*requests)[0]
	if req.Method != http.MethodPost || req.Path != "/api/zone-scorings/9/publish" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
}

func TestUpdateUserStatus_EscapesAccount(t *testing.T) {
	client, requests := newBackend(t, http.StatusOK, `{}`)

	if err := client.UpdateUserStatus(context.Background(), "ACC/300", "Active"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := (*requests)[0]
	if req.Method != http.MethodPatch {
		t.Fatalf("unexpected method %s", req.Method)
	}
	if req.Body["status"] != "Active" {
		t.Fatalf("unexpected body %v", req.Body)
	}
}

func TestErrorResponses(t *testing.T) {
	t.Run("error body is surfaced", func(t *testing.T) {
		client, _ := newBackend(t, http.StatusConflict, `{"error": "record already reviewed by another admin"}`)

		err := client.RejectConsumption(context.Background(), 1, "admin-1", "")
		if err == nil {
			t.Fatal("expected error")
		}
		if !upstream.IsAlreadyReviewed(err) {
			t.Fatalf("expected already-reviewed conflict, got %v", err)
		}
	})

	t.Run("plain failure is not a conflict", func(t *testing.T) {
		client, _ := newBackend(t, http.StatusInternalServerError, `{"error": "boom"}`)

		err := client.PublishRuleset(context.Background(), 1)
		if err == nil {
			t.Fatal("expected error")
		}
		if upstream.IsAlreadyReviewed(err) {
			t.Fatal("5xx must not read as already-reviewed")
		}
	})

	t.Run("non-upstream errors are never conflicts", func(t *testing.T) {
		if upstream.IsAlreadyReviewed(context.Canceled) {
			t.Fatal("unrelated error must not match")
		}
	})
}
