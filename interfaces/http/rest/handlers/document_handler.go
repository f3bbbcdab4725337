package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mindgraph/application/services"
	"mindgraph/domain/core/entities"
	"mindgraph/pkg/common"
	pkgerrors "mindgraph/pkg/errors"
)

// DocumentHandler serves document CRUD, listing and search
type DocumentHandler struct {
	store  *services.DocumentStore
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(store *services.DocumentStore, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, errors: errs, logger: logger}
}

// CreateDocument handles POST /documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var draft entities.Document
	if err := common.ParseJSONBody(w, r, &draft, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	doc, err := h.store.Save(r.Context(), owner, &draft)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Document created",
		zap.String("documentID", doc.ID.String()),
		zap.String("ownerID", owner),
	)
	w.Header().Set("Location", "/api/v1/documents/"+doc.ID.String())
	common.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /documents?category=&q=&sort=&order=&page=&page_size=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	query := r.URL.Query()
	filter, err := services.ParseListFilter(query.Get("category"), query.Get("q"), query.Get("sort"), query.Get("order"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	page, err := common.ExtractPaginationParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	docs, err := h.store.List(r.Context(), owner, filter)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	start, end := page.Bounds(len(docs))
	common.RespondWithMeta(w, http.StatusOK, docs[start:end], &common.MetaInfo{Pagination: page.Meta(len(docs))})
}

// GetDocument handles GET /documents/{documentID}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.store.GetOwned(r.Context(), owner, id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PATCH /documents/{documentID}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.store.GetOwned(r.Context(), owner, id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	update, err := entities.DecodeDocumentUpdate(http.MaxBytesReader(w, r.Body, common.MaxBodyBytes))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	doc, err := h.store.Update(r.Context(), id, update)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{documentID}. Deleting an absent
// document succeeds; a document of another owner is not found.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.store.Get(r.Context(), id)
	switch {
	case pkgerrors.IsNotFound(err):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.errors.Handle(w, r, err)
		return
	case doc.Owner() != owner:
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("document"))
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearDocuments handles DELETE /documents
func (h *DocumentHandler) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	n, err := h.store.Clear(r.Context(), owner)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// Search handles GET /search?q=
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	docs, err := h.store.Search(r.Context(), owner, r.URL.Query().Get("q"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, docs)
}

// Stats handles GET /stats
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	stats, err := h.store.Stats(r.Context(), owner)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, stats)
}
