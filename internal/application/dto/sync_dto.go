package dto

// SyncRequest ejecución manual de sincronización.
type SyncRequest struct {
	Resource string `json:"resource" validate:"omitempty,oneof=orders budgets leads customers all"`
	Days     int    `json:"days" validate:"min=0,max=3650"`
	Backfill bool   `json:"backfill"`
}

// SyncResponse totales de la sincronización.
type SyncResponse struct {
	Resource string   `json:"resource"`
	Windows  int      `json:"windows"`
	Received int      `json:"received"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors,omitempty"`
	Stopped  string   `json:"stopped,omitempty"`
}
