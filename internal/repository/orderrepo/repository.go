package orderrepo

import (
	"context"
	"database/sql"
	"time"

	"estaleiro/internal/domain"
	"estaleiro/internal/errors"
)

// OrderRepository lê as ordens de produção (cascos) no PostgreSQL.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
}

func NewOrderRepository(db *sql.DB, dbTimeout time.Duration) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
	}
}

// A linha é opcional: ordens ainda sem linha atribuída também entram na previsão.
const listInProgressSQL = `
	SELECT o.id, o.hull_id, o.status, o.start_date,
	       m.id, m.name,
	       l.id, l.letter
	FROM production_orders o
	JOIN models m ON m.id = o.model_id
	LEFT JOIN production_lines l ON l.id = o.line_id
	WHERE o.status = $1
	ORDER BY o.hull_id`

// ListInProgress devolve todas as ordens com status em_producao, já com modelo e linha.
func (r *OrderRepository) ListInProgress(ctx context.Context) ([]domain.ProductionOrder, error) {
	// 1. Contexto com timeout do banco
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Busca no PostgreSQL
	rows, err := r.DB.QueryContext(ctxTimeout, listInProgressSQL, domain.OrderInProgress)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar ordens em produção", err)
	}
	defer rows.Close()

	// 3. Mapeamento das linhas para domain.ProductionOrder
	// Lista vazia (e não nil) quando não há ordens em produção.
	orders := make([]domain.ProductionOrder, 0)
	for rows.Next() {
		var (
			o          domain.ProductionOrder
			startDate  sql.NullTime
			lineID     sql.NullString
			lineLetter sql.NullString
		)
		if err := rows.Scan(
			&o.ID,
			&o.HullID,
			&o.Status,
			&startDate,
			&o.Model.ID,
			&o.Model.Name,
			&lineID,
			&lineLetter,
		); err != nil {
			return nil, errors.NewDBError("Falha ao ler ordem de produção", err)
		}
		// Data de início ausente fica nil; o projetor usa "agora" no lugar.
		if startDate.Valid {
			sd := startDate.Time
			o.StartDate = &sd
		}
		o.Line = domain.ProductionLine{ID: lineID.String, Letter: lineLetter.String}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar ordens de produção", err)
	}
	return orders, nil
}
