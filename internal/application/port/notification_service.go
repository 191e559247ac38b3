package port

import "github.com/pkondrashkov/gallery-api/internal/application/dto"

// NotificationService pushes gallery change events to connected clients (Port).
// Implemented by the WebSocket hub in the infrastructure layer.
type NotificationService interface {
	// BroadcastGalleryEvent fans the event out to all connected clients.
	BroadcastGalleryEvent(event *dto.GalleryEventDTO)

	// ClientCount returns the number of connected clients.
	ClientCount() int
}
