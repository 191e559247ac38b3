package dto

import (
	"time"

	"github.com/pkondrashkov/gallery-api/internal/domain/entity"
)

// ImageDTO is the API representation of a catalog image.
type ImageDTO struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// GalleryEventDTO describes a gallery mutation pushed to clients and brokers.
type GalleryEventDTO struct {
	Action string    `json:"action"` // "uploaded" or "deleted"
	Key    string    `json:"key"`
	At     time.Time `json:"at"`
}

func ToImageDTO(record entity.ImageRecord) ImageDTO {
	return ImageDTO{
		Key:          record.Key,
		URL:          record.AccessURL,
		SizeBytes:    record.SizeBytes,
		LastModified: record.LastModified,
	}
}

func ToImageDTOs(records []entity.ImageRecord) []ImageDTO {
	dtos := make([]ImageDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ToImageDTO(record))
	}
	return dtos
}
