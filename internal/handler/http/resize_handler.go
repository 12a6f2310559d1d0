package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/dto"
	"github.com/yokitheyo/imageresizer/internal/handler/middleware"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/source"
	"github.com/yokitheyo/imageresizer/internal/worker"
)

type ResizeHandler struct {
	worker        *worker.ResizeWorker
	store         domain.ArtifactService
	base          *domain.ResizeConfig
	ext           string
	maxUploadSize int64
}

func NewResizeHandler(
	w *worker.ResizeWorker,
	store domain.ArtifactService,
	base *domain.ResizeConfig,
	ext string,
	maxUploadSizeMB int,
) *ResizeHandler {
	return &ResizeHandler{
		worker:        w,
		store:         store,
		base:          base,
		ext:           ext,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *ResizeHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.POST("/resize", h.Resize)
	engine.GET("/artifact/:index", h.GetArtifact)
	engine.DELETE("/artifacts", h.FlushArtifacts)
}

// Resize POST /resize
func (h *ResizeHandler) Resize(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "No image file provided",
		})
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("File size exceeds maximum allowed (%d MB)", h.maxUploadSize/(1024*1024)),
		})
		return
	}

	cfg, err := dto.ApplyProfiles(h.base, dto.ParseProfileList(c.PostForm("profiles")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_profiles",
			Message: err.Error(),
		})
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, h.maxUploadSize)); err != nil {
		zlog.Logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to read upload")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read image",
		})
		return
	}

	src := source.NewBytesSource(filepath.Base(header.Filename), buf.Bytes())
	outcome, err := h.worker.Submit(c.Request.Context(), src, cfg, nil).Outcome()
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConfiguration):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_configuration",
				Message: err.Error(),
			})
		case errors.Is(err, context.Canceled):
			zlog.Logger.Warn().Str("source", src.Name()).Msg("resize canceled by client")
			c.Status(http.StatusRequestTimeout)
		default:
			zlog.Logger.Error().Err(err).Str("source", src.Name()).Msg("failed to resize image")
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "resize_failed",
				Message: "Failed to resize image",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.MapOutcomeToResponse(requestID(c), src.Name(), outcome, h.getBaseURL(c)))
}

// GetArtifact GET /artifact/:index
func (h *ResizeHandler) GetArtifact(c *ginext.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Slot index must be a number",
		})
		return
	}

	file, err := h.store.Open(index)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "Artifact not found",
			})
			return
		}
		zlog.Logger.Error().Err(err).Int("slot", index).Msg("failed to open artifact")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to retrieve artifact",
		})
		return
	}
	defer file.Close()

	c.Header("Content-Type", contentType(h.ext))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=image%d.%s", index, h.ext))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, file)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int("slot", index).
			Int64("bytes_written", written).
			Msg("failed to write artifact to response")
		return
	}
	zlog.Logger.Debug().Int("slot", index).Int64("bytes_written", written).Msg("artifact sent")
}

// FlushArtifacts DELETE /artifacts
func (h *ResizeHandler) FlushArtifacts(c *ginext.Context) {
	if err := h.store.Flush(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to flush artifacts")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "server_error",
			Message: "Failed to flush artifacts",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func contentType(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func requestID(c *ginext.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return uuid.New().String()
}

func (h *ResizeHandler) getBaseURL(c *ginext.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
