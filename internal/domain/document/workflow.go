// Package document contiene las reglas del ciclo de vida de las revisiones de documentos:
// la tabla de transiciones de estado y la clasificación de archivos subidos.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
)

// Action acción del flujo de aprobación.
type Action string

const (
	ActionConcludeAnalysis Action = "concluir_analise"
	ActionSendToDrafter    Action = "enviar_elaborador"
	ActionDrafterApprove   Action = "aprovar_elaborador"
	ActionApprove          Action = "aprovar"
	ActionReject           Action = "reprovar"
)

// Actor quien ejecuta la transición.
type Actor struct {
	UserID      string
	IsSuperuser bool
	Permissions map[string]bool
}

// Can indica si el actor tiene el permiso.
func (a Actor) Can(perm string) bool {
	return a.IsSuperuser || a.Permissions[perm]
}

func (a Actor) is(id *string) bool {
	if a.IsSuperuser {
		return true
	}
	return id != nil && *id == a.UserID
}

// Input datos adicionales de la transición.
type Input struct {
	DrafterID  string
	ApproverID string
	Reason     string
}

type guard func(doc *entity.Document, actor Actor, in Input) error

type rule struct {
	from  []string
	to    string
	guard guard
	apply func(doc *entity.Document, actor Actor, in Input, now time.Time)
}

var transitions = map[Action]rule{
	ActionConcludeAnalysis: {
		from: []string{entity.DocStatusAwaitingAnalysis},
		to:   entity.DocStatusAnalysisDone,
		guard: func(_ *entity.Document, actor Actor, in Input) error {
			if !actor.Can(entity.PermAnalyzeDocument) {
				return domain.ErrForbidden
			}
			if in.DrafterID == "" || in.ApproverID == "" {
				return fmt.Errorf("%w: elaborador y aprobador son obligatorios", domain.ErrInvalidInput)
			}
			return nil
		},
		apply: func(doc *entity.Document, actor Actor, in Input, now time.Time) {
			analyst, drafter, approver := actor.UserID, in.DrafterID, in.ApproverID
			doc.AnalystID, doc.DrafterID, doc.ApproverID = &analyst, &drafter, &approver
			doc.AnalyzedAt = &now
		},
	},
	ActionSendToDrafter: {
		from: []string{entity.DocStatusAnalysisDone},
		to:   entity.DocStatusAwaitingDrafter,
		guard: func(doc *entity.Document, actor Actor, _ Input) error {
			if !actor.Can(entity.PermAnalyzeDocument) {
				return domain.ErrForbidden
			}
			if doc.DrafterID == nil {
				return fmt.Errorf("%w: documento sin elaborador", domain.ErrConflict)
			}
			return nil
		},
	},
	ActionDrafterApprove: {
		from: []string{entity.DocStatusAwaitingDrafter},
		to:   entity.DocStatusAwaitingApprover,
		guard: func(doc *entity.Document, actor Actor, _ Input) error {
			if !actor.is(doc.DrafterID) {
				return domain.ErrForbidden
			}
			return nil
		},
		apply: func(doc *entity.Document, _ Actor, _ Input, now time.Time) {
			doc.DrafterAt = &now
		},
	},
	ActionApprove: {
		from: []string{entity.DocStatusAwaitingApprover},
		to:   entity.DocStatusApproved,
		guard: func(doc *entity.Document, actor Actor, _ Input) error {
			if !actor.is(doc.ApproverID) || !actor.Can(entity.PermApproveDocument) {
				return domain.ErrForbidden
			}
			return nil
		},
		apply: func(doc *entity.Document, _ Actor, _ Input, now time.Time) {
			doc.ApprovedAt = &now
			doc.IsActive = true
		},
	},
	ActionReject: {
		from: []string{
			entity.DocStatusAwaitingAnalysis,
			entity.DocStatusAnalysisDone,
			entity.DocStatusAwaitingDrafter,
			entity.DocStatusAwaitingApprover,
		},
		to: entity.DocStatusRejected,
		guard: func(doc *entity.Document, actor Actor, in Input) error {
			if strings.TrimSpace(in.Reason) == "" {
				return fmt.Errorf("%w: motivo de reprovação obrigatório", domain.ErrInvalidInput)
			}
			switch doc.Status {
			case entity.DocStatusAwaitingDrafter:
				if !actor.is(doc.DrafterID) {
					return domain.ErrForbidden
				}
			case entity.DocStatusAwaitingApprover:
				if !actor.is(doc.ApproverID) {
					return domain.ErrForbidden
				}
			default:
				if !actor.Can(entity.PermAnalyzeDocument) {
					return domain.ErrForbidden
				}
			}
			return nil
		},
		apply: func(doc *entity.Document, _ Actor, in Input, now time.Time) {
			doc.RejectionReason = strings.TrimSpace(in.Reason)
			doc.RejectedAt = &now
		},
	},
}

// Transition aplica la acción sobre el documento y devuelve el estado anterior.
// El documento sólo se modifica si la transición es válida y el guard pasa.
func Transition(doc *entity.Document, action Action, actor Actor, in Input, now time.Time) (string, error) {
	r, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: acción %q desconocida", domain.ErrInvalidInput, action)
	}
	if !contains(r.from, doc.Status) {
		return "", fmt.Errorf("%w: %s no admite %s", domain.ErrInvalidTransition, doc.Status, action)
	}
	if err := r.guard(doc, actor, in); err != nil {
		return "", err
	}
	from := doc.Status
	if r.apply != nil {
		r.apply(doc, actor, in, now)
	}
	doc.Status = r.to
	doc.UpdatedAt = now
	return from, nil
}

// TargetStatus estado destino de la acción (vacío si no existe).
func TargetStatus(action Action) string {
	return transitions[action].to
}

// AvailableActions acciones que el actor puede ejecutar ahora sobre el documento.
// Las validaciones de entrada (motivo, elaborador) no se consideran.
func AvailableActions(doc *entity.Document, actor Actor) []Action {
	order := []Action{ActionConcludeAnalysis, ActionSendToDrafter, ActionDrafterApprove, ActionApprove, ActionReject}
	sample := Input{DrafterID: "-", ApproverID: "-", Reason: "-"}
	var out []Action
	for _, a := range order {
		r := transitions[a]
		if !contains(r.from, doc.Status) {
			continue
		}
		if r.guard(doc, actor, sample) == nil {
			out = append(out, a)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ClassifyUpload determina el tipo de documento por la extensión del editable.
func ClassifyUpload(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".doc", ".docx", ".odt":
		return entity.DocTypePDF, nil
	case ".xls", ".xlsx", ".ods":
		return entity.DocTypeSpreadsheet, nil
	default:
		return "", fmt.Errorf("%w: formato de arquivo inválido", domain.ErrInvalidInput)
	}
}
