package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(rate float64) (*gin.Engine, *MockOperator) {
	gin.SetMode(gin.TestMode)
	op := NewMockOperator(rate, 0, 0)
	return SetupRouter(NewHandler(op)), op
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendEmail(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		r, _ := setupRouter(1)
		w := doJSON(r, "POST", "/api/v1/email/send", SendEmailRequest{
			MessageID: "m-1",
			To:        "maria@example.com",
			Subject:   "Appointment Reminder - Rosado Agency",
			HTML:      "<p>hi</p>",
		})

		require.Equal(t, http.StatusOK, w.Code)
		var resp SendResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "m-1", resp.MessageID)
		assert.Equal(t, ChannelEmail, resp.Channel)
		assert.Equal(t, StatusDelivered, resp.Status)
	})

	t.Run("failed delivery is accepted", func(t *testing.T) {
		r, _ := setupRouter(0)
		w := doJSON(r, "POST", "/api/v1/email/send", SendEmailRequest{
			MessageID: "m-2",
			To:        "maria@example.com",
			Subject:   "s",
			HTML:      "h",
		})

		require.Equal(t, http.StatusAccepted, w.Code)
		var resp SendResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, StatusFailed, resp.Status)
		assert.NotEmpty(t, resp.ErrorCode)
		assert.NotEqual(t, "Unknown error occurred", resp.ErrorMsg)
	})

	t.Run("invalid request", func(t *testing.T) {
		r, _ := setupRouter(1)
		w := doJSON(r, "POST", "/api/v1/email/send", map[string]string{"to": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSendSMS(t *testing.T) {
	r, _ := setupRouter(1)

	w := doJSON(r, "POST", "/api/v1/sms/send", SendSMSRequest{
		MessageID:   "s-1",
		PhoneNumber: "+12545484815",
		Content:     "Reminder",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp SendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ChannelSMS, resp.Channel)

	w = doJSON(r, "POST", "/api/v1/sms/send", SendSMSRequest{
		MessageID:   "s-2",
		PhoneNumber: "2545484815",
		Content:     "Reminder",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateConfig(t *testing.T) {
	r, op := setupRouter(1)

	w := doJSON(r, "PUT", "/api/v1/config", map[string]float64{"delivery_rate": 0.25})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.25, op.DeliveryRate())

	w = doJSON(r, "PUT", "/api/v1/config", map[string]float64{"delivery_rate": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0.25, op.DeliveryRate())
}

func TestHealthCheck(t *testing.T) {
	r, op := setupRouter(1)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	op.downtimeRate = 1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
