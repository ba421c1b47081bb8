package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/middleware"
	"github.com/lalith-99/pilgrimlink/internal/service"
	"go.uber.org/zap"
)

// ImageField is the multipart form field carrying an uploaded image.
const ImageField = "image"

// maxUploadBody caps the whole multipart request. It leaves room for the
// multipart framing so an image of exactly MaxImageBytes still fits; the
// image size itself is checked by service.ValidateImage.
const maxUploadBody = service.MaxImageBytes + 1<<20

// MessageHandler appends to the caller's current group.
type MessageHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewMessageHandler(svc *service.Service, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

type textRequest struct {
	Text string `json:"text"`
}

// SendText handles POST /v1/messages
func (h *MessageHandler) SendText(c *gin.Context) {
	var req textRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	msg, err := h.svc.AppendText(c.Request.Context(), middleware.GetUserID(c), req.Text)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// SendImage handles POST /v1/messages/image (multipart, field "image").
func (h *MessageHandler) SendImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	header, err := c.FormFile(ImageField)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeError(c, h.logger, apperr.Validation("Image size must be less than 5MB"))
		default:
			writeError(c, h.logger, apperr.Validation("No image file provided"))
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, h.logger, apperr.Internal("open uploaded file", err))
		return
	}
	defer file.Close()

	msg, err := h.svc.UploadImage(c.Request.Context(), middleware.GetUserID(c), &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}

// SendAnnouncement handles POST /v1/messages/announcement. The response
// does not wait for member notifications.
func (h *MessageHandler) SendAnnouncement(c *gin.Context) {
	var req textRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	msg, err := h.svc.AppendAnnouncement(c.Request.Context(), middleware.GetUserID(c), req.Text)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, msg)
}
