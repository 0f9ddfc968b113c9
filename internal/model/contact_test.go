package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"jane.doe@example.com", true},
		{"JANE+tag@Example.co", true},
		{"  padded@example.org  ", true},
		{"a_b%c@sub.domain.io", true},
		{"not-an-email", false},
		{"missing@tld", false},
		{"short@tld.c", false},
		{"@example.com", false},
		{"jose@exämple.com", false},
		{"two@@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"2545484815", true},
		{"(254) 548-4815", true},
		{"254.548.4815", true},
		{"12345", false},
		{"+1 254 548 4815", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePhone(tt.phone))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "2545484815", NormalizePhone(" (254) 548-4815 "))
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
	assert.Equal(t, "+12545484815", E164("(254) 548-4815"))
	assert.Equal(t, "12345", E164("12-345"))
}

func TestAppointmentCreateRequest_Normalize(t *testing.T) {
	req := AppointmentCreateRequest{
		Name:   "  Maria Rosado ",
		Phone:  "(254) 548-4815",
		Email:  " Maria@Example.com",
		Reason: " Life insurance quote\n",
	}.Normalize()

	assert.Equal(t, "Maria Rosado", req.Name)
	assert.Equal(t, "2545484815", req.Phone)
	assert.Equal(t, "maria@example.com", req.Email)
	assert.Equal(t, "Life insurance quote", req.Reason)
}

func TestNewValidator(t *testing.T) {
	v := NewValidator()

	ok := AppointmentCreateRequest{Name: "a", Phone: "2545484815", Email: "a@b.co", Reason: "r"}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Email = "not-an-email"
	assert.Error(t, v.Struct(bad))

	bad = ok
	bad.Phone = "12345"
	assert.Error(t, v.Struct(bad))

	bad = ok
	bad.Name = ""
	assert.Error(t, v.Struct(bad))

	assert.NoError(t, v.Var("confirmed", "appointment_status"))
	assert.Error(t, v.Var("archived", "appointment_status"))
}
