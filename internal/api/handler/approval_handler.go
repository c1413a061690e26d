package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/aquagrid/approval-engine/internal/api/middleware"
	"github.com/aquagrid/approval-engine/internal/diff"
	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/service"
)

// ApprovalHandler serves the unified approval queue: the list view, the
// per-item review detail, and the decision endpoint.
type ApprovalHandler struct {
	queue    *service.QueueService
	dispatch *service.DecisionService
	logger   *zap.Logger
}

func NewApprovalHandler(queue *service.QueueService, dispatch *service.DecisionService, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{queue: queue, dispatch: dispatch, logger: logger}
}

type queueItemView struct {
	domain.QueueItem
	KindLabel      string `json:"kind_label"`
	SubmittedLabel string `json:"submitted_label"`
}

func itemView(item domain.QueueItem) queueItemView {
	return queueItemView{
		QueueItem:      item,
		KindLabel:      item.Kind.Label(),
		SubmittedLabel: item.SubmittedAtLabel(),
	}
}

// List handles GET /api/v1/approvals
//
// @Summary  Unified approval queue, newest first
// @Tags     approvals
// @Produce  json
// @Success  200  {object}  map[string]any
// @Failure  502  {object}  map[string]string
// @Router   /api/v1/approvals [get]
func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	items, counts, err := h.queue.Aggregate(r.Context())
	if err != nil {
		h.logger.Error("queue aggregation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	views := make([]queueItemView, len(items))
	for i, item := range items {
		views[i] = itemView(item)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":   views,
		"counts": counts,
	})
}

// GetByID handles GET /api/v1/approvals/{id}
//
// The response carries the enriched item plus the field-level comparison
// the review screen renders. stale=true means the authoritative detail
// fetch failed and the snapshot shown is the list-level one.
//
// @Summary  Review detail for one queue item
// @Tags     approvals
// @Produce  json
// @Param    id   path      string  true  "Queue item id, e.g. consumption-42"
// @Success  200  {object}  map[string]any
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/approvals/{id} [get]
func (h *ApprovalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.queue.GetItem(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}

	item, stale := h.queue.Enrich(r.Context(), item)
	comparison := diff.Compare(item.OldSnapshot, item.NewSnapshot)

	body := map[string]any{
		"item":       itemView(item),
		"comparison": comparison,
		"stale":      stale,
	}
	if item.Kind == domain.KindScoringRuleset {
		if params, ok := item.NewSnapshot.Slice("parameters"); ok {
			body["parameters"] = diff.ParameterTable(params)
		}
	}
	respondJSON(w, http.StatusOK, body)
}

type decideRequest struct {
	Decision domain.Decision `json:"decision"`
	Comments string          `json:"comments"`
}

// Decide handles POST /api/v1/approvals/{id}/decision
//
// The reviewer identity comes from the X-Reviewer-ID header, never the
// body, so an audit entry can always be tied to the authenticated
// session that made the call.
//
// @Summary  Approve or reject a queue item
// @Tags     approvals
// @Accept   json
// @Produce  json
// @Param    X-Reviewer-ID  header    string         true  "Reviewer identity"
// @Param    id             path      string         true  "Queue item id"
// @Param    body           body      decideRequest  true  "Decision payload"
// @Success  200            {object}  map[string]string
// @Failure  404            {object}  map[string]string
// @Failure  422            {object}  map[string]string
// @Failure  502            {object}  map[string]string
// @Router   /api/v1/approvals/{id}/decision [post]
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reviewer := r.Header.Get("X-Reviewer-ID")

	item, err := h.queue.GetItem(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}

	outcome, err := h.dispatch.Decide(r.Context(), item, req.Decision, reviewer, req.Comments)
	if err != nil {
		h.logger.Warn("decision failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("item_id", id),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	body := map[string]string{"outcome": string(outcome)}
	if outcome == service.OutcomeAlreadyReviewed {
		body["message"] = "item was already reviewed by another admin"
	}
	respondJSON(w, http.StatusOK, body)
}
