package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/service"
	"github.com/google/uuid"
)

type StatementHandler struct {
	statements *service.StatementService
	query      *service.QueryService
}

func NewStatementHandler(statements *service.StatementService, query *service.QueryService) *StatementHandler {
	return &StatementHandler{statements: statements, query: query}
}

type createStatementRequest struct {
	ID          string   `json:"id,omitempty" validate:"omitempty,uuid"`
	Type        string   `json:"type" validate:"required,oneof=axiom theory conclusion"`
	Content     string   `json:"content" validate:"required,max=4000"`
	Confidence  *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=32,dive,max=64"`
	DerivedFrom []string `json:"derived_from,omitempty" validate:"omitempty,dive,uuid"`
	// Force inserts even when the statement contradicts existing ones.
	Force bool `json:"force,omitempty"`
}

type updateStatementRequest struct {
	Type            *string   `json:"type,omitempty" validate:"omitempty,oneof=axiom theory conclusion"`
	Content         *string   `json:"content,omitempty" validate:"omitempty,max=4000"`
	Confidence      *float64  `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	ClearConfidence bool      `json:"clear_confidence,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	DerivedFrom     *[]string `json:"derived_from,omitempty"`
}

type listResponse struct {
	Statements []*domain.Statement `json:"statements"`
	Count      int                 `json:"count"`
}

func newList(stmts []*domain.Statement) listResponse {
	if stmts == nil {
		stmts = []*domain.Statement{}
	}
	return listResponse{Statements: stmts, Count: len(stmts)}
}

func (h *StatementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStatementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	parents, err := parseIDs(req.DerivedFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var id domain.StatementID
	if req.ID != "" {
		id = uuid.MustParse(req.ID)
	}

	res, err := h.statements.Create(r.Context(), service.CreateStatementInput{
		ID:          id,
		Kind:        domain.StatementKind(req.Type),
		Content:     req.Content,
		Confidence:  req.Confidence,
		Tags:        req.Tags,
		DerivedFrom: parents,
		Force:       req.Force,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List runs the conjunctive filter: ?type=&tag=&q=&derived_from=&min_confidence=
func (h *StatementHandler) List(w http.ResponseWriter, r *http.Request) {
	var f domain.StatementFilter

	if t := r.URL.Query().Get("type"); t != "" {
		if !domain.ValidStatementKind(t) {
			writeError(w, http.StatusBadRequest, "invalid type")
			return
		}
		kind := domain.StatementKind(t)
		f.Kind = &kind
	}
	f.Tags = queryList(r, "tag")
	f.Content = r.URL.Query().Get("q")

	parents, err := parseIDs(queryList(r, "derived_from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.DerivedFrom = parents

	if r.URL.Query().Get("min_confidence") != "" {
		minConf, err := queryFloat(r, "min_confidence", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.MinConfidence = &minConf
	}

	writeJSON(w, http.StatusOK, newList(h.query.Query(f)))
}

func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	st, err := h.statements.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *StatementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req updateStatementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u := domain.StatementUpdate{
		Content:         req.Content,
		Confidence:      req.Confidence,
		ClearConfidence: req.ClearConfidence,
		Tags:            req.Tags,
	}
	if req.Type != nil {
		kind := domain.StatementKind(*req.Type)
		u.Kind = &kind
	}
	if req.DerivedFrom != nil {
		parents, err := parseIDs(*req.DerivedFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u.DerivedFrom = &parents
	}

	st, err := h.statements.Update(r.Context(), id, u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *StatementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.statements.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StatementHandler) Chain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	chain, found := h.query.Chain(id)
	if !found {
		writeServiceError(w, &domain.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

func (h *StatementHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	h.related(w, r, h.query.Ancestors)
}

func (h *StatementHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	h.related(w, r, h.query.Descendants)
}

func (h *StatementHandler) Dependents(w http.ResponseWriter, r *http.Request) {
	h.related(w, r, h.query.Dependents)
}

func (h *StatementHandler) related(w http.ResponseWriter, r *http.Request, fn func(domain.StatementID) ([]*domain.Statement, bool)) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	stmts, found := fn(id)
	if !found {
		writeServiceError(w, &domain.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, newList(stmts))
}

func (h *StatementHandler) Relations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rel, found := h.query.Relations(id)
	if !found {
		writeServiceError(w, &domain.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (h *StatementHandler) Confidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rep, found := h.query.Confidence(id)
	if !found {
		writeServiceError(w, &domain.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *StatementHandler) Depth(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	depth, found := h.query.Depth(id)
	if !found {
		writeServiceError(w, &domain.NotFoundError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statement_id": id, "depth": depth})
}

// Contradictions checks one statement against the rest of the network.
func (h *StatementHandler) Contradictions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	pairs, err := h.statements.Contradictions(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPairList(pairs))
}
