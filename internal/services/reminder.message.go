package services

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
)

const (
	dateTimeLayout = "Monday, January 2, 2006 at 3:04 PM MST"
	timeLayout     = "3:04 PM MST"

	unscheduledText = "To be scheduled"
	noZoomLinkText  = "Will be provided before the meeting"
)

var emailTemplate = template.Must(template.New("reminder").Parse(`<h2>Appointment Reminder</h2>
<p>Dear {{.Name}},</p>
<p>This is a friendly reminder about your appointment scheduled for today.</p>
<h3>Appointment Details:</h3>
<ul>
  <li><strong>Date &amp; Time:</strong> {{.When}}</li>
  <li><strong>Reason:</strong> {{.Reason}}</li>
  <li><strong>Zoom Link:</strong> {{.ZoomLink}}</li>
</ul>
<p>If you need to reschedule or have any questions, please contact us at {{.AgencyPhone}}.</p>
<p>We look forward to speaking with you!</p>
<p>Best regards,<br>{{.AgencyName}} Team</p>
`))

// MessageConfig holds what reminder texts need besides the appointment.
type MessageConfig struct {
	From        string
	AgencyName  string
	AgencyPhone string
	Location    *time.Location
}

func (c MessageConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c MessageConfig) agencyName() string {
	if c.AgencyName == "" {
		return "Rosado Agency"
	}
	return c.AgencyName
}

// ComposeEmail renders the reminder email for a.
func ComposeEmail(a *model.Appointment, cfg MessageConfig) (model.EmailMessage, error) {
	when := unscheduledText
	if a.AppointmentDate != nil {
		when = a.AppointmentDate.In(cfg.location()).Format(dateTimeLayout)
	}
	zoom := noZoomLinkText
	if a.ZoomLink != nil && *a.ZoomLink != "" {
		zoom = *a.ZoomLink
	}

	var body bytes.Buffer
	err := emailTemplate.Execute(&body, map[string]string{
		"Name":        a.Name,
		"When":        when,
		"Reason":      a.Reason,
		"ZoomLink":    zoom,
		"AgencyPhone": cfg.AgencyPhone,
		"AgencyName":  cfg.agencyName(),
	})
	if err != nil {
		return model.EmailMessage{}, err
	}

	return model.EmailMessage{
		From:    cfg.From,
		To:      a.Email,
		Subject: "Appointment Reminder - " + cfg.agencyName(),
		HTML:    body.String(),
	}, nil
}

// ComposeSMS builds the reminder text for a, addressed in E.164.
func ComposeSMS(a *model.Appointment, cfg MessageConfig) model.SMSMessage {
	var b strings.Builder
	b.WriteString("Reminder: You have an appointment today with ")
	b.WriteString(cfg.agencyName())
	b.WriteString(". ")
	if a.AppointmentDate != nil {
		b.WriteString("Time: ")
		b.WriteString(a.AppointmentDate.In(cfg.location()).Format(timeLayout))
		b.WriteString(". ")
	}
	if a.ZoomLink != nil && *a.ZoomLink != "" {
		b.WriteString("Zoom: ")
		b.WriteString(*a.ZoomLink)
	} else {
		b.WriteString("We'll contact you to confirm the time.")
	}

	return model.SMSMessage{
		To:   model.E164(a.Phone),
		Body: b.String(),
	}
}
