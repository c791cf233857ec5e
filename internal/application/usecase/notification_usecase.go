package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// NotificationUseCase notificaciones in-app y fan-out de eventos de documentos.
type NotificationUseCase struct {
	notifs  repository.NotificationRepository
	users   repository.UserRepository
	mailer  ports.Mailer // nil = sin e-mail
	baseURL string
	log     *logger.Logger
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(notifs repository.NotificationRepository, users repository.UserRepository, mailer ports.Mailer, baseURL string, log *logger.Logger) *NotificationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationUseCase{notifs: notifs, users: users, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/"), log: log.Named("notificacoes")}
}

type notice struct {
	recipient string
	requester string
	message   string
}

// HandleDocumentStatusChanged crea las notificaciones que corresponden al evento y devuelve
// cuántas se crearon. Las repetidas (destinatario, documento, mensaje) se ignoran.
func (uc *NotificationUseCase) HandleDocumentStatusChanged(ctx context.Context, ev ports.DocumentStatusChanged) (int, error) {
	if ev.From == ev.To {
		return 0, nil
	}
	notices, err := uc.plan(ctx, ev)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, nt := range notices {
		n := &entity.Notification{
			ID:          uuid.New().String(),
			RecipientID: nt.recipient,
			DocumentID:  &ev.DocumentID,
			Message:     nt.message,
			CreatedAt:   time.Now(),
		}
		if nt.requester != "" {
			req := nt.requester
			n.RequesterID = &req
		}
		ok, err := uc.notifs.CreateIfAbsent(ctx, n)
		if err != nil {
			return created, fmt.Errorf("notificación para %s: %w", nt.recipient, err)
		}
		if !ok {
			continue
		}
		created++
		uc.sendMail(ctx, n)
	}
	uc.log.Debug().Str("document_id", ev.DocumentID).Str("to", ev.To).Int("created", created).Msg("fan-out de notificaciones")
	return created, nil
}

func (uc *NotificationUseCase) plan(ctx context.Context, ev ports.DocumentStatusChanged) ([]notice, error) {
	label := fmt.Sprintf("%q (Revisão %02d)", ev.Name, ev.Revision)
	switch ev.To {
	case entity.DocStatusAwaitingAnalysis:
		if ev.From != "" {
			return nil, nil
		}
		analysts, err := uc.users.ListIDsWithPermission(ctx, entity.PermAnalyzeDocument)
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("%s criou o documento %s que está aguardando sua análise.", uc.fullName(ctx, ev.RequesterID), label)
		out := make([]notice, 0, len(analysts))
		for _, id := range analysts {
			out = append(out, notice{recipient: id, requester: ev.RequesterID, message: msg})
		}
		return out, nil

	case entity.DocStatusAwaitingDrafter:
		if ev.DrafterID == "" {
			return nil, nil
		}
		return []notice{{
			recipient: ev.DrafterID,
			requester: ev.ActorID,
			message:   fmt.Sprintf("O documento %s foi analisado e está aguardando sua aprovação.", label),
		}}, nil

	case entity.DocStatusAwaitingApprover:
		if ev.ApproverID == "" {
			return nil, nil
		}
		return []notice{{
			recipient: ev.ApproverID,
			requester: ev.DrafterID,
			message:   fmt.Sprintf("O documento %s está pendente de sua aprovação.\nCriado por %s.", label, uc.fullName(ctx, ev.DrafterID)),
		}}, nil

	case entity.DocStatusApproved:
		active, err := uc.users.ListActiveIDs(ctx)
		if err != nil {
			return nil, err
		}
		author := uc.fullName(ctx, ev.DrafterID)
		general := fmt.Sprintf("Informamos que o novo documento %q Revisão %02d criado por %s foi publicado.", ev.Name, ev.Revision, author)
		seen := map[string]bool{}
		var out []notice
		if ev.DrafterID != "" {
			seen[ev.DrafterID] = true
			out = append(out, notice{recipient: ev.DrafterID, message: fmt.Sprintf("Seu documento %s foi aprovado e publicado.", label)})
		}
		if ev.ApproverID != "" && !seen[ev.ApproverID] {
			seen[ev.ApproverID] = true
			out = append(out, notice{recipient: ev.ApproverID, message: fmt.Sprintf("Você aprovou o documento %s que agora foi publicado.", label)})
		}
		for _, id := range active {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, notice{recipient: id, message: general})
		}
		return out, nil

	case entity.DocStatusRejected:
		recipient := ev.DrafterID
		if recipient == "" {
			recipient = ev.RequesterID
		}
		if recipient == "" {
			return nil, nil
		}
		return []notice{{
			recipient: recipient,
			requester: ev.ActorID,
			message:   fmt.Sprintf("Seu documento %s foi reprovado.", label),
		}}, nil
	}
	return nil, nil
}

func (uc *NotificationUseCase) fullName(ctx context.Context, userID string) string {
	if userID == "" {
		return "Alguém"
	}
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "Alguém"
	}
	return u.FullName()
}

// sendMail envía el aviso por e-mail; una falla sólo se registra.
func (uc *NotificationUseCase) sendMail(ctx context.Context, n *entity.Notification) {
	if uc.mailer == nil {
		return
	}
	u, err := uc.users.GetByID(ctx, n.RecipientID)
	if err != nil || u == nil {
		return
	}
	if u.Email == "" {
		uc.log.Warn().Str("username", u.Username).Msg("usuario sin e-mail registrado")
		return
	}
	subject := "Nova Notificação: " + truncateRunes(n.Message, 50)
	body := fmt.Sprintf("Olá, %s.\n\n%s\n\nAcesse: %s/notificacoes\n", u.FullName(), n.Message, uc.baseURL)
	if err := uc.mailer.Send(ctx, u.Email, subject, body); err != nil {
		uc.log.Error().Err(err).Str("to", u.Email).Msg("falla al enviar e-mail de notificación")
	}
}

// ListUnread notificaciones no leídas del usuario.
func (uc *NotificationUseCase) ListUnread(ctx context.Context, userID string) ([]dto.NotificationResponse, error) {
	list, err := uc.notifs.ListUnread(ctx, userID, 100)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, dto.NotificationResponse{
			ID:          n.ID,
			Message:     n.Message,
			DocumentID:  n.DocumentID,
			RequesterID: n.RequesterID,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		})
	}
	return out, nil
}

// CountUnread total de no leídas.
func (uc *NotificationUseCase) CountUnread(ctx context.Context, userID string) (int, error) {
	return uc.notifs.CountUnread(ctx, userID)
}

// MarkRead marca una notificación del usuario como leída.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	return uc.notifs.MarkRead(ctx, userID, id)
}

// MarkAllRead marca todas y devuelve cuántas cambiaron.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return uc.notifs.MarkAllRead(ctx, userID)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
