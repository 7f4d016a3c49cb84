package pickingservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/service/pickingservice"
)

func view(id string, status domain.PickingStatus, requestedAt time.Time) domain.PickingRequestView {
	return domain.PickingRequestView{
		PickingRequest: domain.PickingRequest{ID: id, Status: status, RequestedAt: requestedAt},
		HullID:         "BR-" + id,
		StationName:    "Montagem",
	}
}

func delivered(id string, requestedAt, deliveredAt time.Time) domain.PickingRequestView {
	v := view(id, domain.PickingDelivered, requestedAt)
	v.DeliveredAt = &deliveredAt
	return v
}

func newQueue(repo *MockPickingRepository, hub *recordingHub) *pickingservice.Queue {
	return pickingservice.NewQueue(repo, hub, testLogger(),
		pickingservice.QueueWithClock(fixedNow),
		pickingservice.QueueWithLocation(saoPaulo),
	)
}

func decodeUpdate(t *testing.T, data string) pickingservice.QueueUpdate {
	t.Helper()
	var u pickingservice.QueueUpdate
	require.NoError(t, json.Unmarshal([]byte(data), &u))
	return u
}

func TestQueue_RefreshLoadsEverythingAndBroadcasts(t *testing.T) {
	repo := new(MockPickingRepository)
	hub := &recordingHub{}
	repo.On("ListViews", mock.Anything, midnight()).Return([]domain.PickingRequestView{
		view("b", domain.PickingPending, fixedNow().Add(-time.Hour)),
		view("a", domain.PickingInPicking, fixedNow().Add(-2*time.Hour)),
	}, nil)

	q := newQueue(repo, hub)
	assert.False(t, q.Ready())
	require.NoError(t, q.Refresh(context.Background()))

	assert.True(t, q.Ready())
	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)

	events := hub.all()
	require.Len(t, events, 1)
	assert.Equal(t, pickingservice.EventType, events[0].EventType)
	u := decodeUpdate(t, events[0].Data)
	assert.Equal(t, pickingservice.ActionRefresh, u.Action)
	assert.Equal(t, 2, u.Count)
}

func TestQueue_RefreshFailureKeepsQueueCold(t *testing.T) {
	repo := new(MockPickingRepository)
	repo.On("ListViews", mock.Anything, mock.Anything).Return([]domain.PickingRequestView(nil), errors.New("db down"))

	q := newQueue(repo, &recordingHub{})

	require.Error(t, q.Refresh(context.Background()))
	assert.False(t, q.Ready())
}

func TestQueue_ApplyUpsertsOnlyTheAffectedRequest(t *testing.T) {
	repo := new(MockPickingRepository)
	hub := &recordingHub{}
	repo.On("ListViews", mock.Anything, mock.Anything).Return([]domain.PickingRequestView{
		view("a", domain.PickingPending, fixedNow().Add(-time.Hour)),
	}, nil)
	started := view("a", domain.PickingInPicking, fixedNow().Add(-time.Hour))
	repo.On("FindViewByID", mock.Anything, "a").Return(started, nil)

	q := newQueue(repo, hub)
	require.NoError(t, q.Refresh(context.Background()))
	require.NoError(t, q.Apply(context.Background(), domain.PickingEvent{RequestID: "a", Action: domain.PickingActionStarted}))

	snap := q.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, domain.PickingInPicking, snap[0].Status)
	repo.AssertNumberOfCalls(t, "ListViews", 1)

	events := hub.all()
	require.Len(t, events, 2)
	u := decodeUpdate(t, events[1].Data)
	assert.Equal(t, domain.PickingActionStarted, u.Action)
	require.NotNil(t, u.Request)
	assert.Equal(t, "a", u.Request.ID)
}

func TestQueue_ApplyRemovesVanishedRequest(t *testing.T) {
	repo := new(MockPickingRepository)
	hub := &recordingHub{}
	repo.On("ListViews", mock.Anything, mock.Anything).Return([]domain.PickingRequestView{
		view("a", domain.PickingPending, fixedNow().Add(-time.Hour)),
	}, nil)
	repo.On("FindViewByID", mock.Anything, "a").Return(domain.PickingRequestView{}, apperror.NewNotFoundError("Solicitação de picking a não existe."))

	q := newQueue(repo, hub)
	require.NoError(t, q.Refresh(context.Background()))
	require.NoError(t, q.Apply(context.Background(), domain.PickingEvent{RequestID: "a", Action: domain.PickingActionStarted}))

	assert.Empty(t, q.Snapshot())
	u := decodeUpdate(t, hub.all()[1].Data)
	assert.Equal(t, pickingservice.ActionRemoved, u.Action)
	assert.Equal(t, "a", u.RequestID)
}

func TestQueue_ApplyPropagatesReadFailure(t *testing.T) {
	repo := new(MockPickingRepository)
	repo.On("FindViewByID", mock.Anything, "a").Return(domain.PickingRequestView{}, apperror.NewDBError("Falha", errors.New("timeout")))

	q := newQueue(repo, &recordingHub{})

	require.Error(t, q.Apply(context.Background(), domain.PickingEvent{RequestID: "a"}))
}

func TestQueue_SnapshotKeepsDeliveredOnlyForToday(t *testing.T) {
	repo := new(MockPickingRepository)
	yesterday := midnight().Add(-time.Hour)
	repo.On("ListViews", mock.Anything, mock.Anything).Return([]domain.PickingRequestView{
		delivered("old", yesterday.Add(-time.Hour), yesterday),
		delivered("today", midnight().Add(-2*time.Hour), midnight().Add(time.Hour)),
		view("open", domain.PickingPending, midnight().Add(-48*time.Hour)),
	}, nil)

	q := newQueue(repo, &recordingHub{})
	require.NoError(t, q.Refresh(context.Background()))

	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "open", snap[0].ID)
	assert.Equal(t, "today", snap[1].ID)
}

func TestQueue_RunDispatchesNotifications(t *testing.T) {
	repo := new(MockPickingRepository)
	hub := &recordingHub{}
	repo.On("ListViews", mock.Anything, mock.Anything).Return([]domain.PickingRequestView{}, nil)
	repo.On("FindViewByID", mock.Anything, "r9").Return(view("r9", domain.PickingPending, fixedNow()), nil)

	sub := newFakeSubscription()
	sub.ch <- cache.Notification{Resubscribed: true}
	sub.ch <- cache.Notification{Payload: `{"request_id":"r9","action":"created"}`}
	sub.ch <- cache.Notification{Payload: `lixo`}
	close(sub.ch)

	q := newQueue(repo, hub)
	err := q.Run(context.Background(), sub)

	require.NoError(t, err)
	assert.True(t, sub.closed)
	// Canal fechado: a fila deixa de se declarar pronta.
	assert.False(t, q.Ready())
	// Um refetch na inscrição e outro pela mensagem ilegível.
	repo.AssertNumberOfCalls(t, "ListViews", 2)
	repo.AssertNumberOfCalls(t, "FindViewByID", 1)
	assert.Len(t, hub.all(), 3)
}

func TestQueue_RunStopsOnContextCancel(t *testing.T) {
	q := newQueue(new(MockPickingRepository), &recordingHub{})
	sub := newFakeSubscription()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Run(ctx, sub)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sub.closed)
}

func TestQueue_RunExitMakesListReadRepositoryAgain(t *testing.T) {
	repo := new(MockPickingRepository)
	pub := new(MockPublisher)
	repo.On("ListViews", mock.Anything, midnight()).Return([]domain.PickingRequestView{
		view("r1", domain.PickingPending, fixedNow()),
	}, nil)

	q := newQueue(repo, &recordingHub{})
	svc := newService(repo, pub, pickingservice.WithQueue(q))

	sub := newFakeSubscription()
	sub.ch <- cache.Notification{Resubscribed: true}
	close(sub.ch)
	require.NoError(t, q.Run(context.Background(), sub))
	repo.AssertNumberOfCalls(t, "ListViews", 1)

	got, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 1)
	// Sem inscrição viva, List volta ao repositório em vez do snapshot congelado.
	repo.AssertNumberOfCalls(t, "ListViews", 2)
}
