package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/knet/internal/service"
)

type TheoryHandler struct {
	svc *service.TheoryService
}

func NewTheoryHandler(svc *service.TheoryService) *TheoryHandler {
	return &TheoryHandler{svc: svc}
}

type generateTheoryRequest struct {
	SourceIDs []string `json:"source_ids" validate:"required,min=1,max=20,dive,uuid"`
	// Add inserts the draft as a theory derived from the sources.
	Add   bool `json:"add,omitempty"`
	Force bool `json:"force,omitempty"`
}

func (h *TheoryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateTheoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ids, err := parseIDs(req.SourceIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.Add {
		draft, err := h.svc.Generate(r.Context(), ids)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
		return
	}

	res, err := h.svc.GenerateAndAdd(r.Context(), ids, req.Force)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
