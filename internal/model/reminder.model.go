package model

import "time"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// DispatchResult is the per-channel outcome of one reminder dispatch.
type DispatchResult struct {
	AppointmentID int64  `json:"appointment_id"`
	EmailOK       bool   `json:"email_ok"`
	SMSOK         bool   `json:"sms_ok"`
	EmailError    string `json:"email_error,omitempty"`
	SMSError      string `json:"sms_error,omitempty"`
}

// Success is true when at least one channel delivered.
func (r DispatchResult) Success() bool {
	return r.EmailOK || r.SMSOK
}

type EmailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// ReminderPreview is what a dispatch would send, nothing is delivered.
type ReminderPreview struct {
	Appointment    *Appointment `json:"appointment"`
	Email          EmailMessage `json:"email"`
	SMS            SMSMessage   `json:"sms"`
	ReminderSent   bool         `json:"reminder_sent"`
	EmailSimulated string       `json:"email_simulation"`
	SMSSimulated   string       `json:"sms_simulation"`
}

type SweepItem struct {
	AppointmentID int64  `json:"appointment_id"`
	Name          string `json:"name"`
	Success       bool   `json:"success"`
	EmailOK       bool   `json:"email_ok"`
	SMSOK         bool   `json:"sms_ok"`
	Message       string `json:"message"`
	Error         string `json:"error,omitempty"`
}

type SweepResult struct {
	Message    string      `json:"message"`
	Date       string      `json:"date"`
	Processed  int         `json:"processed"`
	Successful int         `json:"successful"`
	Results    []SweepItem `json:"results"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}
