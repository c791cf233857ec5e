package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/jhoicas/portal-intranet/pkg/logger"
)

// zerologAdapter expone el logger del portal como watermill.LoggerAdapter.
type zerologAdapter struct {
	zl zerolog.Logger
}

func newLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	return zerologAdapter{zl: log.Zerolog()}
}

func withFields(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (a zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(a.zl.Error().Err(err), fields).Msg(msg)
}

func (a zerologAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(a.zl.Info(), fields).Msg(msg)
}

// Debug de watermill es muy ruidoso: baja a trace.
func (a zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(a.zl.Trace(), fields).Msg(msg)
}

func (a zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(a.zl.Trace(), fields).Msg(msg)
}

func (a zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return zerologAdapter{zl: ctx.Logger()}
}
