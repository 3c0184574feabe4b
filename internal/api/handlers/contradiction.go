package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/knet/internal/contradiction"
	"github.com/Harshitk-cp/knet/internal/service"
)

type ContradictionHandler struct {
	statements *service.StatementService
}

func NewContradictionHandler(statements *service.StatementService) *ContradictionHandler {
	return &ContradictionHandler{statements: statements}
}

type pairList struct {
	Contradictions []contradiction.Pair `json:"contradictions"`
	Count          int                  `json:"count"`
}

func newPairList(pairs []contradiction.Pair) pairList {
	if pairs == nil {
		pairs = []contradiction.Pair{}
	}
	return pairList{Contradictions: pairs, Count: len(pairs)}
}

// All runs the pairwise sweep over the whole network.
func (h *ContradictionHandler) All(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newPairList(h.statements.AllContradictions()))
}
