package main

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SendEmailRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	From      string `json:"from"`
	To        string `json:"to" binding:"required,email"`
	Subject   string `json:"subject" binding:"required"`
	HTML      string `json:"html" binding:"required"`
}

type SendSMSRequest struct {
	MessageID   string `json:"message_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
	Content     string `json:"content" binding:"required"`
}

type SendResponse struct {
	MessageID   string         `json:"message_id"`
	Channel     string         `json:"channel"`
	Status      DeliveryStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	OperatorID  string         `json:"operator_id"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type HealthResponse struct {
	Status       string    `json:"status"`
	OperatorID   string    `json:"operator_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockOperator simulates an email and SMS provider with a configurable
// delivery rate and latency.
type MockOperator struct {
	mu           sync.Mutex
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	downtimeRate float64
	operatorID   string
	rng          *rand.Rand
}

func NewMockOperator(deliveryRate float64, minDelay, maxDelay time.Duration) *MockOperator {
	return &MockOperator{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		operatorID:   "MOCK_OPERATOR_" + uuid.New().String()[:8],
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockOperator) DeliveryRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveryRate
}

func (m *MockOperator) SetDeliveryRate(rate float64) bool {
	if rate < 0 || rate > 1 {
		return false
	}
	m.mu.Lock()
	m.deliveryRate = rate
	m.mu.Unlock()
	return true
}

// simulateDelivery sleeps for a random delay and then decides the outcome.
func (m *MockOperator) simulateDelivery(channel, messageID, recipient string) *SendResponse {
	delay := m.randomDelay()
	time.Sleep(delay)

	response := &SendResponse{
		MessageID:   messageID,
		Channel:     channel,
		OperatorID:  m.operatorID,
		ProcessedAt: time.Now(),
	}

	if m.shouldSucceed() {
		response.Status = StatusDelivered
		log.Info().
			Str("channel", channel).
			Str("message_id", messageID).
			Str("recipient", recipient).
			Dur("delay", delay).
			Msg("message delivered")
		return response
	}

	response.Status = StatusFailed
	response.ErrorCode = m.randomErrorCode(channel)
	response.ErrorMsg = errorMessage(response.ErrorCode)
	log.Warn().
		Str("channel", channel).
		Str("message_id", messageID).
		Str("recipient", recipient).
		Str("error_code", response.ErrorCode).
		Msg("message delivery failed")
	return response
}

func (m *MockOperator) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockOperator) shouldSucceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64() < m.deliveryRate
}

func (m *MockOperator) isDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downtimeRate > 0 && m.rng.Float64() < m.downtimeRate
}

func (m *MockOperator) randomErrorCode(channel string) string {
	codes := []string{"NETWORK_ERROR", "TIMEOUT", "OPERATOR_REJECTED"}
	switch channel {
	case ChannelEmail:
		codes = append(codes, "MAILBOX_UNAVAILABLE", "SPAM_REJECTED")
	case ChannelSMS:
		codes = append(codes, "INVALID_NUMBER", "BLOCKED")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return codes[m.rng.Intn(len(codes))]
}

func errorMessage(code string) string {
	messages := map[string]string{
		"INVALID_NUMBER":      "The phone number is invalid or not in service",
		"BLOCKED":             "The recipient has blocked messages",
		"MAILBOX_UNAVAILABLE": "The recipient mailbox is unavailable",
		"SPAM_REJECTED":       "The message was rejected as spam",
		"NETWORK_ERROR":       "Network connectivity issue with operator",
		"TIMEOUT":             "Delivery timed out",
		"OPERATOR_REJECTED":   "Operator rejected the message",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error occurred"
}
