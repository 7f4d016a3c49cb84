package timingrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"estaleiro/internal/domain"
	"estaleiro/internal/errors"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/logger"
)

// CacheKey guarda a tabela de SLA inteira; ela é configuração estática de engenharia.
const CacheKey = "sla:model_area_timings"

// TimingRepository lê a tabela de SLA (modelo x área) com cache-aside no Redis.
type TimingRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

func NewTimingRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *TimingRepository {
	return &TimingRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

const listTimingsSQL = `
	SELECT model_id, area_id, offset_days, duration_days
	FROM model_area_timings
	ORDER BY model_id, area_id`

// ListModelAreaTimings devolve todas as linhas de SLA.
// Falhas do cache nunca derrubam a chamada: caem para o banco.
func (r *TimingRepository) ListModelAreaTimings(ctx context.Context) ([]domain.ModelAreaTiming, error) {
	// 1. Contexto
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// --- 2. Cache-Aside (READ) ---
	if r.Cache != nil {
		cached, err := r.Cache.Get(ctxTimeout, CacheKey)
		switch {
		case err == nil:
			// Cache HIT
			var timings []domain.ModelAreaTiming
			if jsonErr := json.Unmarshal([]byte(cached), &timings); jsonErr == nil {
				return timings, nil
			}
			r.logger.Warn("SLA em cache ilegível, relendo do banco.", map[string]interface{}{"key": CacheKey})
		case !stderrors.Is(err, cache.ErrCacheMiss):
			// Erro real do Redis (conexão perdida, timeout): logamos e seguimos para o banco.
			r.logger.Warn("Falha ao ler SLA do cache.", map[string]interface{}{"key": CacheKey, "error": err.Error()})
		}
	}

	// --- 3. Busca no Banco de Dados (PostgreSQL) ---
	rows, err := r.DB.QueryContext(ctxTimeout, listTimingsSQL)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar tabela de SLA", err)
	}
	defer rows.Close()

	timings := make([]domain.ModelAreaTiming, 0)
	for rows.Next() {
		var t domain.ModelAreaTiming
		if err := rows.Scan(&t.ModelID, &t.AreaID, &t.OffsetDays, &t.DurationDays); err != nil {
			return nil, errors.NewDBError("Falha ao ler linha de SLA", err)
		}
		timings = append(timings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar tabela de SLA", err)
	}

	// --- 4. Cache-Aside (WRITE) ---
	// Falha ao gravar não afeta a resposta.
	if r.Cache != nil {
		if payload, err := json.Marshal(timings); err == nil {
			if err := r.Cache.Set(ctxTimeout, CacheKey, payload, r.CacheTTL); err != nil {
				r.logger.Warn("Falha ao gravar SLA no cache.", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return timings, nil
}

// Invalidate remove a tabela do cache; a próxima leitura vai ao banco.
func (r *TimingRepository) Invalidate(ctx context.Context) error {
	if err := r.Cache.Delete(ctx, CacheKey); err != nil {
		return errors.NewInternalError("Falha ao invalidar cache de SLA", err)
	}
	r.logger.Info("Cache de SLA invalidado.", map[string]interface{}{"key": CacheKey})
	return nil
}
