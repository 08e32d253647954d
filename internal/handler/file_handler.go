package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/internal/service"
	applog "github.com/liqtags/relaychat/pkg/log"
	"github.com/liqtags/relaychat/pkg/middleware"
	"github.com/liqtags/relaychat/pkg/response"
)

// MaxUploadSize caps multipart uploads at 32 MiB.
const MaxUploadSize = 32 << 20

// FileHandler exposes the file upload and download endpoints.
type FileHandler struct {
	files service.FileService
}

// NewFileHandler creates a file handler.
func NewFileHandler(files service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// Upload handles POST /api/files. The body is a multipart form with a
// single "file" part. Requires authentication.
func (h *FileHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file part")
		return
	}
	if fileHeader.Size > MaxUploadSize {
		response.BadRequest(c, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "failed to read upload")
		return
	}
	defer f.Close()

	meta, err := h.files.Upload(
		c.Request.Context(),
		middleware.GetUserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		f,
	)
	if err != nil {
		applog.Ctx(c.Request.Context()).Error().Err(err).Msg("upload failed")
		response.InternalError(c, "failed to store upload")
		return
	}

	response.Created(c, meta)
}

// Download handles GET /api/files/:id. Streams the stored content with
// its original content type and filename.
func (h *FileHandler) Download(c *gin.Context) {
	meta, rc, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			response.NotFound(c, "file not found")
			return
		}
		response.InternalError(c, "failed to read file")
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+meta.Filename+`"`)
	c.DataFromReader(http.StatusOK, meta.Size, meta.ContentType, rc, nil)
}
