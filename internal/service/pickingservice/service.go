package pickingservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
)

// PickingRepository define o contrato que o serviço espera da persistência.
type PickingRepository interface {
	Create(ctx context.Context, req domain.PickingRequest) (domain.PickingRequest, error)
	FindByID(ctx context.Context, id string) (domain.PickingRequest, error)
	FindViewByID(ctx context.Context, id string) (domain.PickingRequestView, error)
	ListViews(ctx context.Context, deliveredSince time.Time) ([]domain.PickingRequestView, error)
	ApplyTransition(ctx context.Context, t domain.PickingTransition) error
}

// Publisher envia as notificações de mudança. O cache.Client do Redis satisfaz esta interface.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload string) error
}

// Service aplica o ciclo de vida das solicitações de picking.
type Service struct {
	repo      PickingRepository
	publisher Publisher
	channel   string
	logger    logger.Logger
	metrics   *metrics.Registry
	queue     *Queue

	now func() time.Time
	loc *time.Location
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithMetrics(reg *metrics.Registry) Option { return func(s *Service) { s.metrics = reg } }

// WithQueue faz List servir a partir do cache da fila ao vivo.
func WithQueue(q *Queue) Option { return func(s *Service) { s.queue = q } }

// NewService cria o serviço. channel é o canal de pub/sub onde os eventos são publicados.
func NewService(repo PickingRepository, publisher Publisher, channel string, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		channel:   channel,
		logger:    log,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest registra uma nova solicitação em "pendente".
func (s *Service) CreateRequest(ctx context.Context, in domain.NewPickingRequest, requestedBy string) (domain.PickingRequest, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.StationID = strings.TrimSpace(in.StationID)
	if in.OrderID == "" || in.StationID == "" {
		return domain.PickingRequest{}, apperror.NewValidationError("order_id e station_id são obrigatórios.")
	}

	req := domain.PickingRequest{
		ID:          uuid.New().String(),
		OrderID:     in.OrderID,
		StationID:   in.StationID,
		Status:      domain.PickingPending,
		Notes:       strings.TrimSpace(in.Notes),
		RequestedBy: requestedBy,
		RequestedAt: s.now(),
	}

	// Repositório -> evento -> log
	created, err := s.repo.Create(ctx, req)
	if err != nil {
		s.logger.Error("Falha ao criar solicitação de picking.", err)
		return domain.PickingRequest{}, err
	}

	s.recordTransition(domain.PickingPending)
	s.publish(ctx, created.ID, domain.PickingActionCreated)
	s.logger.Info("Solicitação de picking criada.", map[string]interface{}{
		"request_id": created.ID,
		"order_id":   created.OrderID,
		"station_id": created.StationID,
	})
	return created, nil
}

// StartPicking move a solicitação de "pendente" para "em_separacao".
func (s *Service) StartPicking(ctx context.Context, id, operatorID string) (domain.PickingRequest, error) {
	return s.advance(ctx, id, operatorID, domain.PickingInPicking, domain.PickingActionStarted)
}

// Deliver move a solicitação de "em_separacao" para "entregue".
func (s *Service) Deliver(ctx context.Context, id, operatorID string) (domain.PickingRequest, error) {
	return s.advance(ctx, id, operatorID, domain.PickingDelivered, domain.PickingActionDelivered)
}

func (s *Service) advance(ctx context.Context, id, operatorID string, target domain.PickingStatus, action string) (domain.PickingRequest, error) {
	if strings.TrimSpace(id) == "" {
		return domain.PickingRequest{}, apperror.NewValidationError("id da solicitação é obrigatório.")
	}

	// 1. Estado atual (NotFound vira 404 no handler)
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.PickingRequest{}, err
	}

	// 2. O ciclo só anda para frente: pendente -> em_separacao -> entregue

	next, ok := current.Status.Next()
	if !ok || next != target {
		return domain.PickingRequest{}, apperror.NewConflictError(fmt.Sprintf(
			"solicitação %s está em '%s'; não pode ir para '%s'.", id, current.Status, target))
	}

	// 3. Update condicional; se outro operador chegou antes, o repositório devolve Conflito
	at := s.now()
	err = s.repo.ApplyTransition(ctx, domain.PickingTransition{
		RequestID:  id,
		From:       current.Status,
		To:         target,
		At:         at,
		OperatorID: operatorID,
	})
	if err != nil {
		s.logger.Warn("Transição de picking recusada.", map[string]interface{}{
			"request_id": id,
			"from":       current.Status,
			"to":         target,
			"error":      err.Error(),
		})
		return domain.PickingRequest{}, err
	}

	// 4. Reflete a gravação na resposta sem reler do banco
	current.Status = target
	switch target {
	case domain.PickingInPicking:
		current.StartedAt = &at
	case domain.PickingDelivered:
		current.DeliveredAt = &at
	}
	if operatorID != "" {
		current.OperatorID = operatorID
	}

	// 5. Notifica a fila ao vivo
	s.recordTransition(target)
	s.publish(ctx, id, action)
	s.logger.Info("Status da solicitação de picking atualizado.", map[string]interface{}{
		"request_id":  id,
		"status":      target,
		"operator_id": operatorID,
	})
	return current, nil
}

// List devolve a fila: abertas e entregues desde a meia-noite local, por ordem de chegada.
// Com a fila ao vivo aquecida, não há ida ao banco.
func (s *Service) List(ctx context.Context) ([]domain.PickingRequestView, error) {
	if s.queue != nil && s.queue.Ready() {
		return s.queue.Snapshot(), nil
	}
	return s.repo.ListViews(ctx, startOfDay(s.now(), s.loc))
}

// Uma falha de publicação não desfaz a mutação: a fila se realinha no próximo refetch completo.
func (s *Service) publish(ctx context.Context, requestID, action string) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(domain.PickingEvent{RequestID: requestID, Action: action})
	if err != nil {
		s.logger.Error("Falha ao serializar evento de picking.", err)
		return
	}
	if err := s.publisher.Publish(ctx, s.channel, string(payload)); err != nil {
		s.logger.Warn("Falha ao publicar evento de picking.", map[string]interface{}{
			"request_id": requestID,
			"action":     action,
			"error":      err.Error(),
		})
	}
}

func (s *Service) recordTransition(status domain.PickingStatus) {
	if s.metrics != nil {
		s.metrics.PickingTransitions.WithLabelValues(string(status)).Inc()
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
