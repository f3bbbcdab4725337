package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindgraph/domain/core/valueobjects"
	"mindgraph/pkg/common"
	pkgerrors "mindgraph/pkg/errors"
)

func ownerFrom(r *http.Request) (string, error) {
	owner, ok := common.GetOwner(r.Context())
	if !ok {
		return "", pkgerrors.NewUnauthorizedError("")
	}
	return owner, nil
}

func documentIDFrom(r *http.Request) (valueobjects.DocumentID, error) {
	id, err := valueobjects.NewDocumentIDFromString(chi.URLParam(r, "documentID"))
	if err != nil {
		return valueobjects.DocumentID{}, pkgerrors.NewValidationError(err.Error())
	}
	return id, nil
}

func queryFloat(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, pkgerrors.NewValidationErrorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidationErrorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func writeBareJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
