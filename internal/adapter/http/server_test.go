package http_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/geistdevelopment/wetter-bericht/internal/adapter/http"
	"github.com/geistdevelopment/wetter-bericht/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockInbound struct {
	err      error
	received []domain.InboundEmail
}

func (m *mockInbound) HandleInbound(_ context.Context, msg domain.InboundEmail) error {
	if m.err != nil {
		return m.err
	}
	m.received = append(m.received, msg)
	return nil
}

func newTestServer(handler *mockInbound, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", handler, &mockReadiness{err: readyErr}, logger)
}

func notificationBody(t *testing.T, mime string) string {
	t.Helper()

	message, err := json.Marshal(map[string]any{
		"mail":    map[string]any{"source": "fallback@example.com"},
		"content": base64.StdEncoding.EncodeToString([]byte(mime)),
	})
	require.NoError(t, err)

	envelope, err := json.Marshal(map[string]any{
		"Type":      "Notification",
		"MessageId": "m-1",
		"Message":   string(message),
	})
	require.NoError(t, err)
	return string(envelope)
}

func TestInboundNotification(t *testing.T) {
	handler := &mockInbound{}
	srv := newTestServer(handler, nil)

	mime := "From: alice@example.com\r\nSubject: weather\r\nContent-Type: text/plain\r\n\r\nADD Charlotte, NC\r\n"
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(notificationBody(t, mime)))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, handler.received, 1)
	assert.Equal(t, "alice@example.com", handler.received[0].Sender)
	assert.Contains(t, handler.received[0].Body, "ADD Charlotte, NC")
}

func TestInboundSubscriptionConfirmation(t *testing.T) {
	handler := &mockInbound{}
	srv := newTestServer(handler, nil)

	body := `{"Type":"SubscriptionConfirmation","TopicArn":"arn:aws:sns:us-east-1:1:inbound","SubscribeURL":"https://sns.example/confirm"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, handler.received, "confirmation must not reach the pipeline")
}

func TestInboundBadEnvelope(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader("not json"))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInboundUndecodableNotification(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)

	body := `{"Type":"Notification","MessageId":"m-2","Message":"not json"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInboundHandlerFailure(t *testing.T) {
	handler := &mockInbound{err: fmt.Errorf("store unavailable")}
	srv := newTestServer(handler, nil)

	mime := "From: alice@example.com\r\nContent-Type: text/plain\r\n\r\nLIST\r\n"
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(notificationBody(t, mime)))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInboundUnsupportedType(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)

	body := `{"Type":"UnsubscribeConfirmation","Message":"{}"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/inbound", strings.NewReader(body))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ignored", resp["status"])
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockInbound{}, fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockInbound{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
