package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/logger"
)

// LogNotifier writes reminders to the log instead of delivering them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendEmail(ctx context.Context, msg model.EmailMessage) (*SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := logResponse(model.ChannelEmail)
	logger.Info("email reminder (log driver)",
		"message_id", resp.MessageID,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject)
	return resp, nil
}

func (n *LogNotifier) SendSMS(ctx context.Context, msg model.SMSMessage) (*SendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := logResponse(model.ChannelSMS)
	logger.Info("sms reminder (log driver)",
		"message_id", resp.MessageID,
		"to", msg.To,
		"body", msg.Body)
	return resp, nil
}

func logResponse(channel string) *SendResponse {
	return &SendResponse{
		MessageID:   uuid.NewString(),
		Channel:     channel,
		Status:      StatusDelivered,
		OperatorID:  "log",
		ProcessedAt: time.Now(),
	}
}
