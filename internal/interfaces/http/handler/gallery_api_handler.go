package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkondrashkov/gallery-api/internal/application/dto"
	"github.com/pkondrashkov/gallery-api/internal/application/usecase"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// GalleryAPIHandler exposes the image catalog over REST: listing, upload,
// delete and the recent uploads index.
type GalleryAPIHandler struct {
	loadCatalogUC       *usecase.LoadImageCatalogCachedUseCase
	uploadImageUC       *usecase.UploadImageUseCase
	deleteImageUC       *usecase.DeleteImageUseCase
	listRecentUploadsUC *usecase.ListRecentUploadsUseCase
	defaultPrefix       string
	maxPayloadBytes     int64
	logger              *logger.Logger
}

type uploadImageRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	DataBase64  string `json:"data_base64"`
}

type uploadImageResponse struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type listImagesResponse struct {
	Prefix string         `json:"prefix"`
	Count  int            `json:"count"`
	Images []dto.ImageDTO `json:"images"`
}

type recentUploadsResponse struct {
	Items      []recentUploadItem `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type recentUploadItem struct {
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func NewGalleryAPIHandler(
	loadCatalogUC *usecase.LoadImageCatalogCachedUseCase,
	uploadImageUC *usecase.UploadImageUseCase,
	deleteImageUC *usecase.DeleteImageUseCase,
	listRecentUploadsUC *usecase.ListRecentUploadsUseCase,
	defaultPrefix string,
	maxPayloadBytes int64,
	log *logger.Logger,
) *GalleryAPIHandler {
	if strings.TrimSpace(defaultPrefix) == "" {
		defaultPrefix = "gallery"
	}
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 20 * 1024 * 1024
	}

	return &GalleryAPIHandler{
		loadCatalogUC:       loadCatalogUC,
		uploadImageUC:       uploadImageUC,
		deleteImageUC:       deleteImageUC,
		listRecentUploadsUC: listRecentUploadsUC,
		defaultPrefix:       defaultPrefix,
		maxPayloadBytes:     maxPayloadBytes,
		logger:              log,
	}
}

// HandleImages dispatches /api/v1/gallery/images by method.
func (h *GalleryAPIHandler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listImages(w, r)
	case http.MethodPost:
		h.uploadImage(w, r)
	case http.MethodDelete:
		h.deleteImage(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleUploads serves /api/v1/gallery/uploads, the newest-first index.
func (h *GalleryAPIHandler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	page, err := h.listRecentUploadsUC.Execute(r.Context(), usecase.ListRecentUploadsCommand{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		h.logger.Error("Failed to list recent uploads", err)
		statusCode := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not configured") {
			statusCode = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), statusCode)
		return
	}

	items := make([]recentUploadItem, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, recentUploadItem{
			Key:         item.Key,
			URL:         item.URL,
			ContentType: item.ContentType,
			SizeBytes:   item.SizeBytes,
			UploadedAt:  item.UploadedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, recentUploadsResponse{
		Items:      items,
		NextCursor: page.NextCursor,
	})
}

func (h *GalleryAPIHandler) listImages(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	if prefix == "" {
		prefix = h.defaultPrefix
	}

	images, err := h.loadCatalogUC.Execute(r.Context(), prefix)
	if err != nil {
		h.logger.Error("Failed to load image catalog", err, "prefix", prefix)
		statusCode := http.StatusBadRequest
		if errors.Is(err, usecase.ErrStorageUnavailable) {
			statusCode = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), statusCode)
		return
	}

	h.writeJSON(w, http.StatusOK, listImagesResponse{
		Prefix: prefix,
		Count:  len(images),
		Images: images,
	})
}

func (h *GalleryAPIHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)
	defer r.Body.Close()

	var req uploadImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if strings.Contains(err.Error(), "http: request body too large") {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	data, err := decodeBase64Image(req.DataBase64)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid image data: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.uploadImageUC.Execute(r.Context(), usecase.UploadImageCommand{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Data:        data,
	})
	if err != nil {
		h.logger.Error("Failed to upload image", err,
			"file_name", req.FileName,
			"content_type", req.ContentType,
		)
		statusCode := http.StatusBadRequest
		if errors.Is(err, usecase.ErrImageTooLarge) {
			statusCode = http.StatusRequestEntityTooLarge
		}
		if errors.Is(err, usecase.ErrStorageUnavailable) {
			statusCode = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), statusCode)
		return
	}

	h.writeJSON(w, http.StatusCreated, uploadImageResponse{
		Key:        result.Key,
		URL:        result.URL,
		SizeBytes:  result.SizeBytes,
		UploadedAt: result.UploadedAt,
	})
}

func (h *GalleryAPIHandler) deleteImage(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		http.Error(w, "Missing key parameter", http.StatusBadRequest)
		return
	}

	if err := h.deleteImageUC.Execute(r.Context(), usecase.DeleteImageCommand{Key: key}); err != nil {
		h.logger.Error("Failed to delete image", err, "key", key)
		statusCode := http.StatusBadRequest
		if errors.Is(err, usecase.ErrStorageUnavailable) {
			statusCode = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), statusCode)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"key":     key,
	})
}

func (h *GalleryAPIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// decodeBase64Image decodes a base64 payload, tolerating a data URL prefix
// like "data:image/png;base64,".
func decodeBase64Image(raw string) ([]byte, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("empty data_base64")
	}

	if strings.HasPrefix(value, "data:") {
		if idx := strings.Index(value, ";base64,"); idx >= 0 {
			value = value[idx+len(";base64,"):]
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64")
	}

	return decoded, nil
}
