package gateway

import (
	"context"
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

// SendResponse is the provider's answer to one email or SMS send.
type SendResponse struct {
	MessageID   string         `json:"message_id"`
	Channel     string         `json:"channel"`
	Status      DeliveryStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	OperatorID  string         `json:"operator_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg model.EmailMessage) (*SendResponse, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, msg model.SMSMessage) (*SendResponse, error)
}

// Notifier delivers both reminder channels.
type Notifier interface {
	EmailSender
	SMSSender
}
