package transport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/logger"
)

// Log writes messages to the logger instead of sending them. Used in
// development when mail.provider is "log".
type Log struct {
	log *zap.Logger
}

// NewLog creates a logging transport.
func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log.Named("mail")}
}

func (l *Log) Send(_ context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error) {
	id := uuid.NewString()
	fields := []zap.Field{
		zap.String("message_id", id),
		zap.String("mailing_id", msg.MailingID),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	}
	for _, to := range msg.To {
		fields = append(fields, logger.Email("to", to))
	}
	l.log.Info("email", fields...)
	return &domain.SendResult{MessageID: id, Provider: "log", SentAt: time.Now().UTC()}, nil
}
