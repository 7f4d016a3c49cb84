package pickingservice

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
	"estaleiro/internal/pkg/sse"
)

// EventType é o nome do evento SSE emitido a cada mudança na fila.
const EventType = "picking_update"

// ViewRepository é o subconjunto de leitura que a fila usa.
type ViewRepository interface {
	FindViewByID(ctx context.Context, id string) (domain.PickingRequestView, error)
	ListViews(ctx context.Context, deliveredSince time.Time) ([]domain.PickingRequestView, error)
}

// Broadcaster distribui eventos aos clientes conectados. O sse.Hub satisfaz esta interface.
type Broadcaster interface {
	Broadcast(event sse.Event)
}

// QueueUpdate é o corpo do evento SSE.
type QueueUpdate struct {
	Action    string                     `json:"action"`
	RequestID string                     `json:"request_id,omitempty"`
	Request   *domain.PickingRequestView `json:"request,omitempty"`
	Count     int                        `json:"count"`
}

// Ação extra do SSE: a fila foi recarregada inteira.
const ActionRefresh = "refresh"

// ActionRemoved indica que a solicitação saiu da fila (apagada no banco).
const ActionRemoved = "removed"

// Queue é o cache em memória da fila de picking, indexado pelo id da solicitação.
// Mensagens do pub/sub atualizam só a solicitação afetada; cada (re)inscrição
// dispara um refetch completo, que cobre eventos perdidos durante a reconexão.
type Queue struct {
	repo    ViewRepository
	hub     Broadcaster
	logger  logger.Logger
	metrics *metrics.Registry
	now     func() time.Time
	loc     *time.Location

	mu    sync.RWMutex
	items map[string]domain.PickingRequestView
	ready bool
}

type QueueOption func(*Queue)

func QueueWithClock(now func() time.Time) QueueOption { return func(q *Queue) { q.now = now } }

func QueueWithLocation(loc *time.Location) QueueOption { return func(q *Queue) { q.loc = loc } }

func QueueWithMetrics(reg *metrics.Registry) QueueOption { return func(q *Queue) { q.metrics = reg } }

func NewQueue(repo ViewRepository, hub Broadcaster, log logger.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		repo:   repo,
		hub:    hub,
		logger: log,
		now:    time.Now,
		loc:    time.Local,
		items:  make(map[string]domain.PickingRequestView),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Run consome a inscrição até o contexto ser cancelado ou o canal fechar.
// Ao sair, a fila volta a ficar fria e List passa a consultar o banco.
func (q *Queue) Run(ctx context.Context, sub cache.Subscription) error {
	defer sub.Close()
	defer q.markCold()
	q.logger.Info("Fila de picking ao vivo iniciada.", nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-sub.Notifications():
			if !ok {
				q.logger.Warn("Inscrição de picking encerrada.", nil)
				return nil
			}
			q.handle(ctx, n)
		}
	}
}

func (q *Queue) handle(ctx context.Context, n cache.Notification) {
	if n.Resubscribed {
		if err := q.Refresh(ctx); err != nil {
			q.logger.Error("Falha no refetch completo da fila de picking.", err)
		}
		return
	}

	var ev domain.PickingEvent
	if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil || ev.RequestID == "" {
		q.logger.Warn("Evento de picking ilegível, recarregando a fila.", map[string]interface{}{"payload": n.Payload})
		if err := q.Refresh(ctx); err != nil {
			q.logger.Error("Falha no refetch completo da fila de picking.", err)
		}
		return
	}
	if err := q.Apply(ctx, ev); err != nil {
		q.logger.Error("Falha ao atualizar solicitação na fila de picking.", err)
	}
}

// Refresh recarrega a fila inteira do banco.
func (q *Queue) Refresh(ctx context.Context) error {
	views, err := q.repo.ListViews(ctx, q.today())
	if err != nil {
		return err
	}

	items := make(map[string]domain.PickingRequestView, len(views))
	for _, v := range views {
		items[v.ID] = v
	}

	q.mu.Lock()
	q.items = items
	q.ready = true
	size := len(items)
	q.mu.Unlock()

	q.observe("full", size)
	q.broadcast(QueueUpdate{Action: ActionRefresh, Count: size})
	q.logger.Debug("Fila de picking recarregada.", map[string]interface{}{"size": size})
	return nil
}

// Apply busca só a solicitação do evento e a insere ou substitui no cache.
func (q *Queue) Apply(ctx context.Context, ev domain.PickingEvent) error {
	// 1. Relê só a solicitação afetada
	view, err := q.repo.FindViewByID(ctx, ev.RequestID)
	var notFound *apperror.NotFoundError
	if err != nil && !stderrors.As(err, &notFound) {
		return err
	}

	// 2. Upsert ou remoção, e poda das entregues antes da meia-noite
	cutoff := q.today()
	q.mu.Lock()
	if notFound != nil {
		delete(q.items, ev.RequestID)
	} else {
		q.items[view.ID] = view
	}
	for id, v := range q.items {
		if !visible(v, cutoff) {
			delete(q.items, id)
		}
	}
	size := len(q.items)
	q.mu.Unlock()

	// 3. Avisa os painéis
	q.observe("incremental", size)
	if notFound != nil {
		q.broadcast(QueueUpdate{Action: ActionRemoved, RequestID: ev.RequestID, Count: size})
		return nil
	}
	q.broadcast(QueueUpdate{Action: ev.Action, RequestID: view.ID, Request: &view, Count: size})
	return nil
}

// markCold descarta o estado aquecido; sem inscrição o mapa deixaria de receber eventos.
func (q *Queue) markCold() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = false
}

// Ready informa se o primeiro refetch completo já aconteceu.
func (q *Queue) Ready() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.ready
}

// Snapshot devolve as abertas e as entregues desde a meia-noite local, por requested_at.
func (q *Queue) Snapshot() []domain.PickingRequestView {
	cutoff := q.today()

	q.mu.RLock()
	out := make([]domain.PickingRequestView, 0, len(q.items))
	for _, v := range q.items {
		if visible(v, cutoff) {
			out = append(out, v)
		}
	}
	q.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out
}

func (q *Queue) today() time.Time {
	return startOfDay(q.now(), q.loc)
}

func visible(v domain.PickingRequestView, cutoff time.Time) bool {
	if v.Status != domain.PickingDelivered {
		return true
	}
	return v.DeliveredAt != nil && !v.DeliveredAt.Before(cutoff)
}

func (q *Queue) observe(kind string, size int) {
	if q.metrics == nil {
		return
	}
	q.metrics.QueueRefreshes.WithLabelValues(kind).Inc()
	q.metrics.QueueSize.Set(float64(size))
}

func (q *Queue) broadcast(update QueueUpdate) {
	if q.hub == nil {
		return
	}
	data, err := json.Marshal(update)
	if err != nil {
		q.logger.Error("Falha ao serializar evento SSE da fila.", err)
		return
	}
	q.hub.Broadcast(sse.Event{EventType: EventType, Data: string(data)})
}
