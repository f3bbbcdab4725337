package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mindgraph/application/services"
	"mindgraph/domain/scoring"
	"mindgraph/pkg/common"
	pkgerrors "mindgraph/pkg/errors"
	"mindgraph/pkg/utils"
)

// AnalysisHandler serves derived connections, keywords, the story network
// and step scoring
type AnalysisHandler struct {
	store       *services.DocumentStore
	connections *services.ConnectionService
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	store *services.DocumentStore,
	connections *services.ConnectionService,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{store: store, connections: connections, errors: errs, logger: logger}
}

// Connections handles GET /connections?minStrength=&max=
func (h *AnalysisHandler) Connections(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	defaultStrength, defaultMax := h.connections.Defaults()
	minStrength, err := queryFloat(r, "minStrength", defaultStrength)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if minStrength < 0 || minStrength > 1 {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("minStrength must be between 0 and 1"))
		return
	}
	maxCount, err := queryInt(r, "max", defaultMax)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if maxCount < 0 {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("max cannot be negative"))
		return
	}

	result, err := h.connections.Analyze(r.Context(), owner, minStrength, maxCount)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// Flow handles GET /documents/{documentID}/flow
func (h *AnalysisHandler) Flow(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	id, err := documentIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	flow, err := h.connections.Flow(r.Context(), owner, id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, flow)
}

// Connected handles GET /documents/{documentID}/connected
func (h *AnalysisHandler) Connected(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	id, err := documentIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	docs, err := h.connections.Connected(r.Context(), owner, id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, docs)
}

// Keywords handles GET /keywords
func (h *AnalysisHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	entries, err := h.store.Keywords(r.Context(), owner)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, entries)
}

// Network handles GET /network
func (h *AnalysisHandler) Network(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	network, err := h.store.Network(r.Context(), owner)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, network)
}

// ScoreRequest is the body of POST /score. Step is the 0-based story step.
type ScoreRequest struct {
	Content string `json:"content"`
	Step    int    `json:"step" validate:"min=0,max=6"`
}

// ScoreResponse adds the partial scores to the step rating
type ScoreResponse struct {
	scoring.Result
	Breakdown scoring.Breakdown `json:"breakdown"`
}

// Score handles POST /score
func (h *AnalysisHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := common.ParseJSONBody(w, r, &req, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ScoreResponse{
		Result:    scoring.ScoreStep(req.Content, req.Step),
		Breakdown: scoring.Analyze(req.Content),
	})
}
