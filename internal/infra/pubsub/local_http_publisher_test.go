package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"enrollment/config"
	"enrollment/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *service.CardRequestedEvent {
	return &service.CardRequestedEvent{
		RequestID:      "req-42",
		CardID:         "5f0e0b8e-7d55-4a3c-9b7b-2f7f5f6c1a01",
		MemberID:       "0d8c4c2a-1f26-4a37-8d7e-8b5b0d7e2c11",
		PlanPurchaseID: "a7b1e1c4-3b6f-4f0e-b0e2-4d5e6f7a8b9c",
		CardUniqueID:   "EC-2026-5F0E0B8E",
	}
}

func TestLocalHTTPPublisher_PublishCardRequested(t *testing.T) {
	var (
		received  PushEnvelope
		requestID string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	publisher := NewLocalHTTPPublisher(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	event := testEvent()

	require.NoError(t, publisher.PublishCardRequested(context.Background(), event))

	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, localSubscription, received.Subscription)
	assert.Equal(t, event.CardID, received.Message.MessageID)
	assert.Equal(t, event.MemberID, received.Message.Attributes["member_id"])

	data, err := base64.StdEncoding.DecodeString(received.Message.Data)
	require.NoError(t, err)
	var decoded service.CardRequestedEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *event, decoded)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	publisher := NewLocalHTTPPublisher(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := publisher.PublishCardRequested(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewPushEnvelope_OmitsEmptyRequestID(t *testing.T) {
	event := testEvent()
	event.RequestID = ""

	envelope, err := NewPushEnvelope(event, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotContains(t, envelope.Message.Attributes, "request_id")
	assert.Equal(t, "2026-03-01T10:00:00Z", envelope.Message.PublishTime)
}

func TestNewEventPublisher_Noop(t *testing.T) {
	publisher, err := NewEventPublisher(PublisherParams{
		Ctx:    context.Background(),
		Config: &config.Config{},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	assert.NoError(t, publisher.PublishCardRequested(context.Background(), testEvent()))
	assert.NoError(t, publisher.Close())
}

func TestNewEventPublisher_LocalRequiresEndpoint(t *testing.T) {
	_, err := NewEventPublisher(PublisherParams{
		Ctx:    context.Background(),
		Config: &config.Config{PubSub: &config.PubSubConfig{Provider: "local"}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	assert.EqualError(t, err, "local endpoint is required for local provider")
}
