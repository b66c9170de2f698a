package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"gloveiq-backend/internal/ledger"
	"gloveiq-backend/internal/logger"
	"gloveiq-backend/internal/models"
	"gloveiq-backend/internal/photostore"
)

type PhotosHandler struct {
	store *photostore.Store
	led   *ledger.Ledger
	log   *logger.Logger
}

func NewPhotosHandler(store *photostore.Store, led *ledger.Ledger, log *logger.Logger) *PhotosHandler {
	return &PhotosHandler{store: store, led: led, log: log}
}

// fileFieldNames are tried in order when pulling files out of a multipart
// form, so clients with different field conventions all work.
var fileFieldNames = []string{"photo", "photos", "file", "files", "image", "images"}

func formFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	form := c.Request.MultipartForm
	if form == nil {
		return nil, fmt.Errorf("multipart form is nil")
	}
	for _, field := range fileFieldNames {
		if f := form.File[field]; len(f) > 0 {
			return f, nil
		}
	}
	return nil, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	return data, nil
}

// Upload stores a single photo by content hash and reports whether the bytes
// were already known.
func (h *PhotosHandler) Upload(c *gin.Context) {
	files, err := formFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse upload",
			Message: err.Error(),
		})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no file uploaded",
			Message: fmt.Sprintf("please provide a file with one of these field names: %v", fileFieldNames),
		})
		return
	}

	fh := files[0]
	data, err := readFile(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file",
			Message: err.Error(),
		})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "uploaded file is empty"})
		return
	}

	put, err := h.store.Put(fh.Filename, photostore.MimeFromName(fh.Filename), data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store photo",
			Message: err.Error(),
		})
		return
	}

	if !put.Deduped {
		img := put.Image
		if err := h.led.Append([]ledger.Record{
			ledger.Image(img.ImageID, img.SHA256, img.Name, img.Mime, img.Bytes, img.URL),
		}); err != nil {
			h.log.Error("failed to record stored image", "image_id", img.ImageID, "error", err)
		}
	}

	c.JSON(http.StatusOK, models.UploadPhotoResponse{
		PhotoID: put.Image.ImageID,
		Deduped: put.Deduped,
	})
}
