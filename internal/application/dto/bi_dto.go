package dto

import (
	"encoding/json"
	"time"
)

// BIReportRequest alta o edición de relatório.
type BIReportRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	EmbedCode     string   `json:"embed_code" validate:"required"`
	WorkspaceID   string   `json:"workspace_id" validate:"omitempty,uuid"`
	ReportID      string   `json:"report_id" validate:"omitempty,uuid"`
	DatasetID     string   `json:"dataset_id" validate:"omitempty,uuid"`
	AllUsers      bool     `json:"all_users"`
	AllowedUsers  []string `json:"allowed_users" validate:"dive,uuid"`
	AllowedGroups []string `json:"allowed_groups" validate:"dive,uuid"`
}

// BIReportResponse relatório.
type BIReportResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	WorkspaceID   string     `json:"workspace_id"`
	ReportID      string     `json:"report_id"`
	DatasetID     string     `json:"dataset_id,omitempty"`
	AllUsers      bool       `json:"all_users"`
	AllowedUsers  []string   `json:"allowed_users,omitempty"`
	AllowedGroups []string   `json:"allowed_groups,omitempty"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`
	NextUpdate    *time.Time `json:"next_update,omitempty"`
}

// BIEmbedResponse dados para o front embutir o relatório.
type BIEmbedResponse struct {
	ReportID  string    `json:"report_id"`
	EmbedURL  string    `json:"embed_url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BIRefreshResponse último refresh conhecido.
type BIRefreshResponse struct {
	ReportID    string     `json:"report_id"`
	LastUpdated *time.Time `json:"last_updated"`
}

// BIAccessResponse acesso a um relatório.
type BIAccessResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// SavedViewRequest alta de visão salva.
type SavedViewRequest struct {
	Name      string          `json:"name" validate:"required,max=120"`
	State     json.RawMessage `json:"state" validate:"required"`
	IsDefault bool            `json:"is_default"`
}

// SavedViewResponse visão salva.
type SavedViewResponse struct {
	ID         string          `json:"id"`
	ReportID   string          `json:"report_id"`
	Name       string          `json:"name"`
	State      json.RawMessage `json:"state"`
	IsDefault  bool            `json:"is_default"`
	ShareToken *string         `json:"share_token,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
