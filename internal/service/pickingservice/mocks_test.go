package pickingservice_test

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"estaleiro/internal/domain"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/sse"
)

type MockPickingRepository struct{ mock.Mock }

func (m *MockPickingRepository) Create(ctx context.Context, req domain.PickingRequest) (domain.PickingRequest, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, domain.PickingRequest) domain.PickingRequest); ok {
		return fn(ctx, req), args.Error(1)
	}
	return args.Get(0).(domain.PickingRequest), args.Error(1)
}

func (m *MockPickingRepository) FindByID(ctx context.Context, id string) (domain.PickingRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PickingRequest), args.Error(1)
}

func (m *MockPickingRepository) FindViewByID(ctx context.Context, id string) (domain.PickingRequestView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PickingRequestView), args.Error(1)
}

func (m *MockPickingRepository) ListViews(ctx context.Context, deliveredSince time.Time) ([]domain.PickingRequestView, error) {
	args := m.Called(ctx, deliveredSince)
	return args.Get(0).([]domain.PickingRequestView), args.Error(1)
}

func (m *MockPickingRepository) ApplyTransition(ctx context.Context, t domain.PickingTransition) error {
	return m.Called(ctx, t).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, channel string, payload string) error {
	return m.Called(ctx, channel, payload).Error(0)
}

// recordingHub guarda os eventos emitidos.
type recordingHub struct {
	mu     sync.Mutex
	events []sse.Event
}

func (h *recordingHub) Broadcast(e sse.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHub) all() []sse.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]sse.Event(nil), h.events...)
}

type fakeSubscription struct {
	ch     chan cache.Notification
	closed bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{ch: make(chan cache.Notification, 8)}
}

func (s *fakeSubscription) Notifications() <-chan cache.Notification { return s.ch }

func (s *fakeSubscription) Close() error {
	s.closed = true
	return nil
}

func testLogger() logger.Logger {
	return logger.NewLoggerWithWriter("debug", &bytes.Buffer{})
}

var saoPaulo = time.FixedZone("BRT", -3*60*60)

// 10h locais de 15/03/2024.
func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, saoPaulo)
}

func midnight() time.Time {
	return time.Date(2024, 3, 15, 0, 0, 0, 0, saoPaulo)
}
