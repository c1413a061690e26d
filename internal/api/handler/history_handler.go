package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/service"
)

// HistoryHandler serves the approval history view.
type HistoryHandler struct {
	dispatch *service.DecisionService
	logger   *zap.Logger
}

func NewHistoryHandler(dispatch *service.DecisionService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{dispatch: dispatch, logger: logger}
}

// List handles GET /api/v1/history
//
// All populated filters apply together; the free-text q parameter
// matches the kind label, the summary, and the formatted decision time.
//
// @Summary  Approval history with filtering and pagination
// @Tags     history
// @Produce  json
// @Param    kind      query     string  false  "Filter by kind"
// @Param    decision  query     string  false  "Filter by decision (approve/reject)"
// @Param    q         query     string  false  "Free-text search"
// @Param    page      query     int     false  "Page number (default 1)"
// @Param    limit     query     int     false  "Items per page (default 20, max 100)"
// @Success  200       {object}  map[string]any
// @Router   /api/v1/history [get]
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseHistoryFilter(r)

	entries, total, err := h.dispatch.History(r.Context(), filter)
	if err != nil {
		h.logger.Error("history query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func parseHistoryFilter(r *http.Request) domain.HistoryFilter {
	q := r.URL.Query()
	filter := domain.HistoryFilter{Page: 1, Limit: 20, Search: q.Get("q")}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if k := q.Get("kind"); k != "" {
		kind := domain.Kind(k)
		if kind.IsValid() {
			filter.Kind = &kind
		}
	}
	if d := q.Get("decision"); d != "" {
		decision := domain.Decision(d)
		if decision.IsValid() {
			filter.Decision = &decision
		}
	}
	return filter
}
