package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"mindgraph/application/services"
	"mindgraph/pkg/common"
	pkgerrors "mindgraph/pkg/errors"
)

// TransferHandler serves export and import of an owner's data
type TransferHandler struct {
	store  *services.DocumentStore
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(store *services.DocumentStore, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{store: store, errors: errs, logger: logger}
}

// Export handles GET /export. The snapshot is sent bare, without the
// response envelope, so it can be posted back to /import unchanged.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	snapshot, err := h.store.Export(r.Context(), owner)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	filename := fmt.Sprintf("mindgraph-%s.json", snapshot.ExportedAt.Format("20060102-150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeBareJSON(w, h.logger, http.StatusOK, snapshot)
}

// Import handles POST /import
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var snapshot services.Snapshot
	if err := common.ParseJSONBody(w, r, &snapshot, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	n, err := h.store.Import(r.Context(), owner, &snapshot)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Snapshot imported", zap.String("ownerID", owner), zap.Int("documents", n))
	common.RespondJSON(w, http.StatusOK, map[string]int{"imported": n})
}
