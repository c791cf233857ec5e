package dto

import "time"

// NotificationResponse notificación in-app.
type NotificationResponse struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	DocumentID  *string   `json:"document_id,omitempty"`
	RequesterID *string   `json:"requester_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
