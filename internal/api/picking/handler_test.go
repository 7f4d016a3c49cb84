package picking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
	"estaleiro/internal/pkg/middleware"
	"estaleiro/internal/pkg/sse"
)

type MockPickingService struct{ mock.Mock }

func (m *MockPickingService) CreateRequest(ctx context.Context, in domain.NewPickingRequest, requestedBy string) (domain.PickingRequest, error) {
	args := m.Called(ctx, in, requestedBy)
	return args.Get(0).(domain.PickingRequest), args.Error(1)
}

func (m *MockPickingService) StartPicking(ctx context.Context, id, operatorID string) (domain.PickingRequest, error) {
	args := m.Called(ctx, id, operatorID)
	return args.Get(0).(domain.PickingRequest), args.Error(1)
}

func (m *MockPickingService) Deliver(ctx context.Context, id, operatorID string) (domain.PickingRequest, error) {
	args := m.Called(ctx, id, operatorID)
	return args.Get(0).(domain.PickingRequest), args.Error(1)
}

func (m *MockPickingService) List(ctx context.Context) ([]domain.PickingRequestView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PickingRequestView), args.Error(1)
}

func newHandler(svc PickingService) *Handler {
	log := logger.NewLoggerWithWriter("debug", &bytes.Buffer{})
	return NewHandler(svc, sse.NewHub(log), log, metrics.NewRegistry(), time.Hour)
}

func asUser(r *http.Request, id string, role domain.UserRole) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserClaimsKey, middleware.UserClaims{UserID: id, Role: role})
	return r.WithContext(ctx)
}

func TestCreateHandler(t *testing.T) {
	svc := new(MockPickingService)
	in := domain.NewPickingRequest{OrderID: "o1", StationID: "s1", Notes: "kit elétrico"}
	svc.On("CreateRequest", mock.Anything, in, "u1").Return(domain.PickingRequest{ID: "r1", Status: domain.PickingPending}, nil)

	body, _ := json.Marshal(in)
	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/picking", bytes.NewReader(body)), "u1", domain.RoleProduction)
	rec := httptest.NewRecorder()
	newHandler(svc).CreateHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got domain.PickingRequest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "r1", got.ID)
}

func TestCreateHandler_BadPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(new(MockPickingService)).CreateHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/picking", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartHandler_MapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"não existe", apperror.NewNotFoundError("Solicitação de picking r1 não existe."), http.StatusNotFound},
		{"transição inválida", apperror.NewConflictError("já entregue"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockPickingService)
			svc.On("StartPicking", mock.Anything, "r1", "op1").Return(domain.PickingRequest{ID: "r1", Status: domain.PickingInPicking}, tc.err)

			req := asUser(httptest.NewRequest(http.MethodPost, "/v1/picking/r1/start", nil), "op1", domain.RoleLogistics)
			req.SetPathValue("id", "r1")
			rec := httptest.NewRecorder()
			newHandler(svc).StartHandler(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestDeliverHandler(t *testing.T) {
	svc := new(MockPickingService)
	svc.On("Deliver", mock.Anything, "r1", "op1").Return(domain.PickingRequest{ID: "r1", Status: domain.PickingDelivered}, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/v1/picking/r1/deliver", nil), "op1", domain.RoleLogistics)
	req.SetPathValue("id", "r1")
	rec := httptest.NewRecorder()
	newHandler(svc).DeliverHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"entregue"`)
}

func TestListHandler(t *testing.T) {
	svc := new(MockPickingService)
	svc.On("List", mock.Anything).Return([]domain.PickingRequestView{
		{PickingRequest: domain.PickingRequest{ID: "r1", Status: domain.PickingPending}, HullID: "BR-1"},
	}, nil)

	rec := httptest.NewRecorder()
	newHandler(svc).ListHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/picking", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hull_id":"BR-1"`)
}

// syncRecorder permite ler o corpo enquanto o stream ainda escreve.
type syncRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (s *syncRecorder) Header() http.Header { return s.rec.Header() }

func (s *syncRecorder) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Write(b)
}

func (s *syncRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.WriteHeader(code)
}

func (s *syncRecorder) Flush() {}

func (s *syncRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Body.String()
}

func TestStreamHandler_ForwardsHubEvents(t *testing.T) {
	h := newHandler(new(MockPickingService))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/picking/stream", nil).WithContext(ctx), "u1", domain.RoleLogistics)
	rec := &syncRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		h.StreamHandler(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.Hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	h.Hub.Broadcast(sse.Event{EventType: "picking_update", Data: `{"action":"created"}`})

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event: picking_update\ndata: {\"action\":\"created\"}\n\n")
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 0, h.Hub.Count())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.body(), "event: connected\n"))
}

func TestStreamHandler_EndsOnServerShutdown(t *testing.T) {
	h := newHandler(new(MockPickingService))
	shutdown := make(chan struct{})
	h.Done = shutdown

	// O contexto da requisição continua vivo: só o desligamento encerra o stream.
	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/picking/stream", nil), "u1", domain.RoleLogistics)
	rec := &syncRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		h.StreamHandler(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.Hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	close(shutdown)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream não encerrou após o desligamento")
	}
	assert.Equal(t, 0, h.Hub.Count())
}
