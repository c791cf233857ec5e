package dto

import (
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// FormRequest alta o edición de formulario (sin campos).
type FormRequest struct {
	Title              string     `json:"title" validate:"required,max=200"`
	Description        string     `json:"description"`
	Public             bool       `json:"public"`
	OpensAt            *time.Time `json:"opens_at"`
	ClosesAt           *time.Time `json:"closes_at"`
	ResponseLimit      int        `json:"response_limit" validate:"min=0"`
	AcceptingResponses bool       `json:"accepting_responses"`
	ShowOnHome         bool       `json:"show_on_home"`
	CollectName        bool       `json:"collect_name"`
	RepeatEveryMinutes int        `json:"repeat_every_minutes" validate:"min=0"`
	Target             string     `json:"target" validate:"omitempty,oneof=ALL 50 MAN"`
	TargetUsers        []string   `json:"target_users" validate:"dive,uuid"`
}

// FieldRequest alta o edición de pregunta.
type FieldRequest struct {
	Label      string                `json:"label" validate:"required,max=255"`
	Help       string                `json:"help"`
	Type       string                `json:"type" validate:"required,fieldtype"`
	Required   bool                  `json:"required"`
	Options    []string              `json:"options"`
	Validation entity.FileValidation `json:"validation"`
	Active     *bool                 `json:"active"`
}

// ReorderRequest nueva orden de los campos.
type ReorderRequest struct {
	FieldIDs []string `json:"field_ids" validate:"required,min=1,dive,uuid"`
}

// CollaboratorRequest colaborador de formulario.
type CollaboratorRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	CanEdit bool   `json:"can_edit"`
	CanView bool   `json:"can_view"`
}

// CollaboratorsRequest lista completa de colaboradores.
type CollaboratorsRequest struct {
	Collaborators []CollaboratorRequest `json:"collaborators" validate:"dive"`
}

// FieldResponse pergunta.
type FieldResponse struct {
	ID         string                `json:"id"`
	Label      string                `json:"label"`
	Help       string                `json:"help,omitempty"`
	Type       string                `json:"type"`
	Order      int                   `json:"order"`
	Required   bool                  `json:"required"`
	Options    []string              `json:"options,omitempty"`
	Validation entity.FileValidation `json:"validation"`
	Active     bool                  `json:"active"`
}

// FormResponse formulario con sus preguntas.
type FormResponse struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	OwnerID            string          `json:"owner_id"`
	Public             bool            `json:"public"`
	OpensAt            *time.Time      `json:"opens_at,omitempty"`
	ClosesAt           *time.Time      `json:"closes_at,omitempty"`
	ResponseLimit      int             `json:"response_limit"`
	Version            int             `json:"version"`
	AcceptingResponses bool            `json:"accepting_responses"`
	ShowOnHome         bool            `json:"show_on_home"`
	CollectName        bool            `json:"collect_name"`
	RepeatEveryMinutes int             `json:"repeat_every_minutes"`
	Target             string          `json:"target"`
	TargetUsers        []string        `json:"target_users,omitempty"`
	ResponseCount      int             `json:"response_count"`
	Unavailable        []string        `json:"unavailable,omitempty"`
	Fields             []FieldResponse `json:"fields"`
}

// SubmitResponse resultado del envío.
type SubmitResponse struct {
	ResponseID  string `json:"response_id"`
	FormVersion int    `json:"form_version"`
}

// AnswerValue valor de una respuesta.
type AnswerValue struct {
	FieldID  string `json:"field_id"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// AnswerResponse respuesta registrada.
type AnswerResponse struct {
	ID            string        `json:"id"`
	UserID        *string       `json:"user_id,omitempty"`
	IP            string        `json:"ip"`
	FormVersion   int           `json:"form_version"`
	CollectedName string        `json:"collected_name,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Values        []AnswerValue `json:"values"`
}

// AnswerListResponse página de respuestas.
type AnswerListResponse struct {
	Items []AnswerResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// HomeFormResponse formulario a exibir na home.
type HomeFormResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SubmitFormRequest envío de respuestas: valores por ID de campo y archivos subidos.
type SubmitFormRequest struct {
	Values map[string][]string
	Files  map[string][]Upload
	Name   string
	IP     string
}
