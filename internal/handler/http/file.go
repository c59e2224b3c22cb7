package http

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/storage"
)

type FileHandler interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type fileHandlerImpl struct {
	storage storage.FileStorage
}

func NewFileHandler(fileStorage storage.FileStorage) FileHandler {
	return &fileHandlerImpl{
		storage: fileStorage,
	}
}

// Serve streams a stored file back as an attachment.
func (h *fileHandlerImpl) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	file, err := h.storage.Download(r.Context(), key)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer file.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	w.Header().Set("Cache-Control", "private, max-age=3600")

	if _, err := io.Copy(w, file); err != nil {
		slog.Warn("Failed to stream file", "key", key, "error", err)
	}
}
