package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/knet/internal/service"
)

type AnalyticsHandler struct {
	query *service.QueryService
}

func NewAnalyticsHandler(query *service.QueryService) *AnalyticsHandler {
	return &AnalyticsHandler{query: query}
}

func (h *AnalyticsHandler) MostDerived(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": h.query.MostDerived(limit)})
}

func (h *AnalyticsHandler) Deepest(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": h.query.Deepest(limit)})
}

func (h *AnalyticsHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newList(h.query.Orphans()))
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.query.Summary())
}
