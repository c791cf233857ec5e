package entity

import "time"

// Notification aviso in-app sobre un documento.
type Notification struct {
	ID          string
	RecipientID string
	RequesterID *string
	DocumentID  *string
	Message     string
	Read        bool
	CreatedAt   time.Time
}
