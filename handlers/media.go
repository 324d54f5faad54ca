package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/logger"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/metrics"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
)

// DefaultMaxUpload bounds a single media upload.
const DefaultMaxUpload = 10 << 20

// MediaHandler accepts photo uploads for pinpoints.
type MediaHandler struct {
	media    storage.MediaStore
	maxBytes int64
}

func NewMediaHandler(media storage.MediaStore, maxBytes int64) *MediaHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return &MediaHandler{media: media, maxBytes: maxBytes}
}

func (h *MediaHandler) Register(r gin.IRouter) {
	r.POST("/media", h.Upload)
}

// Upload stores the multipart "file" field for the logged-in user and returns
// the key to pass as pinpoint content.
func (h *MediaHandler) Upload(c *gin.Context) {
	sess, _ := sessions.FromContext(c)
	user, err := sessions.RequireAuthenticated(sess)
	if err != nil {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		router.RenderError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		router.RenderError(c, apperr.Validation("file", "a multipart file no larger than the upload limit is required"))
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		router.RenderError(c, apperr.Validation("file", "must be an image"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		router.RenderError(c, err)
		return
	}
	defer f.Close()

	key := storage.NewObjectKey(fh.Filename)
	if err := h.media.Upload(c.Request.Context(), storage.ObjectName(user, key), f, fh.Size, contentType); err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		router.RenderError(c, err)
		return
	}
	metrics.MediaUploads.WithLabelValues("ok").Inc()
	logger.Debugf("media %s uploaded by %s (%d bytes)", key, user, fh.Size)
	c.JSON(http.StatusOK, gin.H{"msg": "Media uploaded!", "key": key})
}
