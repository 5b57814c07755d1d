package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/http/middleware"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/queue"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/storage"
)

// DocumentHandler manages cleaner verification document uploads. File
// removal happens off the request path: once the database row is gone
// the response does not wait on, or fail for, disk cleanup.
type DocumentHandler struct {
	documents *repository.DocumentRepository
	storage   *storage.DocumentStorage
	tasks     *queue.Runner
}

func NewDocumentHandler(documents *repository.DocumentRepository, store *storage.DocumentStorage, tasks *queue.Runner) *DocumentHandler {
	return &DocumentHandler{documents: documents, storage: store, tasks: tasks}
}

// Upload POST /cleaners/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		middleware.Abort(c, apperror.New(apperror.ErrCodeDocumentUploadInvalid, "the file field is required"))
		return
	}
	if file.Size == 0 {
		middleware.Abort(c, apperror.New(apperror.ErrCodeDocumentUploadInvalid, "the file must not be empty"))
		return
	}

	src, err := file.Open()
	if err != nil {
		middleware.Abort(c, apperror.Internal("failed to open upload", err))
		return
	}
	defer src.Close()

	// Sniff magic bytes before writing anything to disk.
	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		middleware.Abort(c, apperror.New(apperror.ErrCodeDocumentUploadInvalid, "could not read the file"))
		return
	}
	mimeType, err := h.storage.ValidateContent(file.Filename, head[:n])
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		middleware.Abort(c, apperror.Internal("failed to rewind upload", err))
		return
	}

	relativePath, size, err := h.storage.Save(c.Request.Context(), principal.ID, file.Filename, src)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	doc := &models.Document{
		CleanerID: principal.ID,
		FilePath:  relativePath,
		MimeType:  mimeType,
		SizeBytes: size,
	}
	if err := h.documents.Create(c.Request.Context(), doc); err != nil {
		h.tasks.Submit("document.cleanup", func(ctx context.Context) error {
			return h.storage.Delete(ctx, relativePath)
		})
		middleware.Abort(c, apperror.Internal("failed to record document", err))
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// List GET /cleaners/documents
func (h *DocumentHandler) List(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	docs, err := h.documents.ListByCleaner(c.Request.Context(), principal.ID)
	if err != nil {
		middleware.Abort(c, apperror.Internal("failed to list documents", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Delete DELETE /cleaners/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	principal, err := middleware.Principal(c)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	doc, err := h.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			middleware.Abort(c, apperror.ResourceNotFound("document", id.String()))
			return
		}
		middleware.Abort(c, apperror.Internal("failed to load document", err))
		return
	}
	if doc.CleanerID != principal.ID {
		middleware.Abort(c, apperror.PermissionDenied("document belongs to another account"))
		return
	}

	if err := h.documents.Delete(c.Request.Context(), id); err != nil {
		middleware.Abort(c, apperror.Internal("failed to delete document", err))
		return
	}
	filePath := doc.FilePath
	h.tasks.Submit("document.remove", func(ctx context.Context) error {
		return h.storage.Delete(ctx, filePath)
	})
	c.Status(http.StatusNoContent)
}
