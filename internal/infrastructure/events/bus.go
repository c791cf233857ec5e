// Package events bus de eventos en proceso (watermill gochannel) entre los casos de uso.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// TopicDocumentStatus cambios de estado de documentos.
const TopicDocumentStatus = "documentos.status"

var _ ports.EventPublisher = (*Bus)(nil)

// DocumentStatusHandler consumidor de TopicDocumentStatus.
type DocumentStatusHandler func(ctx context.Context, ev ports.DocumentStatusChanged) error

// Bus publica y despacha eventos en memoria. Los mensajes publicados antes de
// Run o sin suscriptores se descartan.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	log    *logger.Logger
}

// NewBus arma el pub/sub y el router con Recoverer y Retry.
func NewBus(log *logger.Logger) (*Bus, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("events")
	wlog := newLoggerAdapter(log)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wlog)
	if err != nil {
		return nil, fmt.Errorf("events: router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2,
		Logger:          wlog,
	}
	router.AddMiddleware(retry.Middleware)

	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog),
		router: router,
		log:    log,
	}, nil
}

// PublishDocumentStatusChanged serializa el evento en JSON.
func (b *Bus) PublishDocumentStatusChanged(ctx context.Context, ev ports.DocumentStatusChanged) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("document_id", ev.DocumentID)
	if err := b.pubsub.Publish(TopicDocumentStatus, msg); err != nil {
		return fmt.Errorf("events: publicar %s: %w", TopicDocumentStatus, err)
	}
	return nil
}

// OnDocumentStatusChanged registra un consumidor; debe llamarse antes de Run.
func (b *Bus) OnDocumentStatusChanged(name string, h DocumentStatusHandler) {
	b.router.AddConsumerHandler(name, TopicDocumentStatus, b.pubsub, func(msg *message.Message) error {
		var ev ports.DocumentStatusChanged
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// payload inválido no se reintenta
			b.log.Error().Err(err).Str("message_id", msg.UUID).Msg("evento de documento inválido")
			return nil
		}
		return h(msg.Context(), ev)
	})
}

// Run bloquea hasta que ctx se cancela.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running se cierra cuando los handlers están suscritos.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close detiene router y pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubsub.Close()
}
