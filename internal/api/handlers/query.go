package handlers

import (
	"net/http"
	"strings"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/service"
	"github.com/google/uuid"
)

type QueryHandler struct {
	query *service.QueryService
}

func NewQueryHandler(query *service.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

func (h *QueryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, newList(h.query.Search(q)))
}

// ByTags handles ?tag=a&tag=b&mode=any|all.
func (h *QueryHandler) ByTags(w http.ResponseWriter, r *http.Request) {
	tags := queryList(r, "tag")
	if len(tags) == 0 {
		writeError(w, http.StatusBadRequest, "at least one tag is required")
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode != "" && mode != "any" && mode != "all" {
		writeError(w, http.StatusBadRequest, "mode must be any or all")
		return
	}
	writeJSON(w, http.StatusOK, newList(h.query.ByTags(tags, mode == "all")))
}

func (h *QueryHandler) TagFrequency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.query.TagFrequency()})
}

func (h *QueryHandler) Path(w http.ResponseWriter, r *http.Request) {
	from, err := uuid.Parse(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := uuid.Parse(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to")
		return
	}

	path := h.query.Path(from, to)
	if path == nil {
		path = []*domain.Statement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"found": len(path) > 0,
		"hops":  max(len(path)-1, 0),
		"path":  path,
	})
}

// ConfidenceRange handles ?min=&max=, both inclusive.
func (h *QueryHandler) ConfidenceRange(w http.ResponseWriter, r *http.Request) {
	lo, err := queryFloat(r, "min", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hi, err := queryFloat(r, "max", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if lo > hi {
		writeError(w, http.StatusBadRequest, "min must not exceed max")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": h.query.ByConfidenceRange(lo, hi)})
}

func (h *QueryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newList(h.query.Recent(limit)))
}
