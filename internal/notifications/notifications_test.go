package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event Event) error {
	args := m.Called(event)
	return args.Error(0)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(ctx context.Context, event Event) error {
	panic("smtp exploded")
}

func TestNotifierSwallowsDispatchErrors(t *testing.T) {
	dispatcher := new(MockDispatcher)
	event := NewEvent(RequestApproved, 3, "REQ-2026-000003", 9, 4)
	dispatcher.On("Dispatch", event).Return(errors.New("smtp down"))

	notifier := NewNotifier(dispatcher, zap.NewNop(), time.Second)
	notifier.Notify(event)
	notifier.Wait()

	dispatcher.AssertExpectations(t)
}

func TestNotifierRecoversFromPanics(t *testing.T) {
	notifier := NewNotifier(panickingDispatcher{}, zap.NewNop(), time.Second)

	assert.NotPanics(t, func() {
		notifier.Notify(NewEvent(RequestCreated, 1, "REQ-2026-000001", 1))
		notifier.Wait()
	})
}

func TestWebhookDispatcher(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "request.rejected", r.Header.Get("X-Event-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	event := NewEvent(RequestRejected, 5, "REQ-2026-000005", 2, 7)
	err := NewWebhookDispatcher(server.URL, server.Client()).Dispatch(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, event.ID, received.ID)
	assert.Equal(t, []int{7}, received.Recipients)
}

func TestWebhookDispatcherReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewWebhookDispatcher(server.URL, nil).Dispatch(context.Background(), NewEvent(RequestClosed, 1, "REQ-2026-000001", 1))

	assert.EqualError(t, err, "webhook responded with status 502")
}
