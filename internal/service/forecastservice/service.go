package forecastservice

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
)

// OrderRepository lista as ordens em produção com modelo e linha.
type OrderRepository interface {
	ListInProgress(ctx context.Context) ([]domain.ProductionOrder, error)
}

// RoutingRepository lista as transições de posto que exigem kitting.
type RoutingRepository interface {
	ListKittingTransitions(ctx context.Context) ([]domain.StationTransitionRule, error)
}

// TimingRepository lista a tabela de SLA por modelo e área.
type TimingRepository interface {
	ListModelAreaTimings(ctx context.Context) ([]domain.ModelAreaTiming, error)
}

// Service calcula a previsão de kitting. Não guarda estado entre chamadas.
type Service struct {
	orders  OrderRepository
	routing RoutingRepository
	timings TimingRepository
	logger  logger.Logger
	metrics *metrics.Registry

	now         func() time.Time
	loc         *time.Location
	horizonDays int
}

// Option ajusta o Service na construção.
type Option func(*Service)

// WithClock fixa o relógio (testes e CLI com --now).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation define o fuso usado para truncar datas.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithHorizonDays define a janela de antecedência. Valores negativos são ignorados.
func WithHorizonDays(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.horizonDays = days
		}
	}
}

// WithMetrics liga o registro de métricas.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Service) { s.metrics = reg }
}

// NewService cria o serviço de previsão.
func NewService(orders OrderRepository, routing RoutingRepository, timings TimingRepository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		orders:      orders,
		routing:     routing,
		timings:     timings,
		logger:      log,
		now:         time.Now,
		loc:         time.Local,
		horizonDays: DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetForecast carrega ordens, transições e SLA em paralelo e projeta a previsão.
// Se qualquer leitura falhar, a operação inteira falha: nunca há previsão parcial.
func (s *Service) GetForecast(ctx context.Context) ([]domain.ForecastEntry, error) {
	started := time.Now()
	s.logger.Debug("Iniciando cálculo da previsão de kitting.", map[string]interface{}{"horizon_days": s.horizonDays})

	var (
		orders  []domain.ProductionOrder
		rules   []domain.StationTransitionRule
		timings []domain.ModelAreaTiming
	)

	// 1. Leituras em paralelo (ordens, roteiro, SLA)
	// A primeira falha cancela gctx e as outras leituras.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.orders.ListInProgress(gctx)
		return err
	})
	g.Go(func() (err error) {
		rules, err = s.routing.ListKittingTransitions(gctx)
		return err
	})
	g.Go(func() (err error) {
		timings, err = s.timings.ListModelAreaTimings(gctx)
		return err
	})

	// 2. Tudo ou nada
	if err := g.Wait(); err != nil {
		s.logger.Error("Falha ao carregar dados da previsão de kitting.", err)
		if s.metrics != nil {
			s.metrics.ForecastRuns.WithLabelValues("error").Inc()
		}
		return nil, apperror.NewInternalError(fmt.Sprintf("Falha ao carregar dados da previsão de kitting: %s", err.Error()), err)
	}

	// 3. Projeção pura, sem I/O
	entries := Project(Projection{
		Orders:      orders,
		Rules:       rules,
		Timings:     timings,
		Now:         s.now(),
		Location:    s.loc,
		HorizonDays: s.horizonDays,
	})

	// 4. Métricas e log
	elapsed := time.Since(started)
	if s.metrics != nil {
		s.metrics.ObserveForecast(elapsed.Seconds(), entries)
	}
	s.logger.Info("Previsão de kitting calculada.", map[string]interface{}{
		"orders":     len(orders),
		"rules":      len(rules),
		"timings":    len(timings),
		"entries":    len(entries),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	return entries, nil
}

// GetForecastByBucket devolve a previsão já agrupada em colunas.
func (s *Service) GetForecastByBucket(ctx context.Context, mergeOverdue bool) ([]domain.BucketColumn, error) {
	entries, err := s.GetForecast(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByBucket(entries, mergeOverdue), nil
}
