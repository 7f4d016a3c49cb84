package pickingrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"estaleiro/internal/domain"
	"estaleiro/internal/errors"
)

// PickingRepository persiste as solicitações de separação de kit.
type PickingRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
}

func NewPickingRepository(db *sql.DB, dbTimeout time.Duration) *PickingRepository {
	return &PickingRepository{DB: db, DBTimeout: dbTimeout}
}

// Create insere uma nova solicitação. O status inicial já vem preenchido pelo serviço.
func (r *PickingRepository) Create(ctx context.Context, req domain.PickingRequest) (domain.PickingRequest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
		INSERT INTO picking_requests (id, order_id, station_id, status, notes, requested_by, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		req.ID,
		req.OrderID,
		req.StationID,
		req.Status,
		nullString(req.Notes),
		nullString(req.RequestedBy),
		req.RequestedAt,
	)
	if err != nil {
		return domain.PickingRequest{}, errors.NewDBError("Falha ao inserir solicitação de picking", err)
	}
	return req, nil
}

const selectRequestSQL = `
	SELECT id, order_id, station_id, status, notes, requested_by, operator_id,
	       requested_at, started_at, delivered_at
	FROM picking_requests
	WHERE id = $1`

// FindByID busca a solicitação sem os dados de exibição.
func (r *PickingRepository) FindByID(ctx context.Context, id string) (domain.PickingRequest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	req, err := scanRequest(r.DB.QueryRowContext(ctxTimeout, selectRequestSQL, id))
	// Sem linhas: NotFoundError, que o handler mapeia para 404.
	if err == sql.ErrNoRows {
		return domain.PickingRequest{}, errors.NewNotFoundError(fmt.Sprintf("Solicitação de picking %s não existe.", id))
	}
	if err != nil {
		return domain.PickingRequest{}, errors.NewDBError("Falha ao buscar solicitação de picking", err)
	}
	return req, nil
}

// Visão unida usada pela fila ao vivo. Linha e área podem faltar.
const selectViewSQL = `
	SELECT p.id, p.order_id, p.station_id, p.status, p.notes, p.requested_by, p.operator_id,
	       p.requested_at, p.started_at, p.delivered_at,
	       o.hull_id, m.name, l.letter, s.name, a.name
	FROM picking_requests p
	JOIN production_orders o ON o.id = p.order_id
	JOIN models m ON m.id = o.model_id
	LEFT JOIN production_lines l ON l.id = o.line_id
	JOIN stations s ON s.id = p.station_id
	LEFT JOIN areas a ON a.id = s.area_id`

// FindViewByID busca uma única solicitação já unida. Usado na atualização incremental da fila.
func (r *PickingRepository) FindViewByID(ctx context.Context, id string) (domain.PickingRequestView, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	view, err := scanView(r.DB.QueryRowContext(ctxTimeout, selectViewSQL+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.PickingRequestView{}, errors.NewNotFoundError(fmt.Sprintf("Solicitação de picking %s não existe.", id))
	}
	if err != nil {
		return domain.PickingRequestView{}, errors.NewDBError("Falha ao buscar solicitação de picking", err)
	}
	return view, nil
}

// ListViews devolve as solicitações abertas e as entregues a partir de deliveredSince,
// em ordem de chegada.
func (r *PickingRepository) ListViews(ctx context.Context, deliveredSince time.Time) ([]domain.PickingRequestView, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := selectViewSQL + `
	WHERE p.status <> $1 OR p.delivered_at >= $2
	ORDER BY p.requested_at, p.id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, domain.PickingDelivered, deliveredSince)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar solicitações de picking", err)
	}
	defer rows.Close()

	views := make([]domain.PickingRequestView, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler solicitação de picking", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar solicitações de picking", err)
	}
	return views, nil
}

// ApplyTransition grava a mudança de estado somente se o status atual ainda for t.From.
// Nenhuma linha afetada significa que outro operador chegou antes (ou o id não existe).
func (r *PickingRepository) ApplyTransition(ctx context.Context, t domain.PickingTransition) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 1. Coluna de carimbo conforme o destino
	var stampColumn string
	switch t.To {
	case domain.PickingInPicking:
		stampColumn = "started_at"
	case domain.PickingDelivered:
		stampColumn = "delivered_at"
	default:
		return errors.NewValidationError(fmt.Sprintf("Status de destino inválido: %s", t.To))
	}

	// 2. Update condicional: só grava se o status atual ainda for o esperado.
	// Transições reversas e corridas entre operadores caem aqui.
	updateSQL := fmt.Sprintf(`
		UPDATE picking_requests
		SET status = $3, %s = $4, operator_id = COALESCE($5, operator_id)
		WHERE id = $1 AND status = $2`, stampColumn)

	res, err := r.DB.ExecContext(ctxTimeout, updateSQL, t.RequestID, t.From, t.To, t.At, nullString(t.OperatorID))
	if err != nil {
		return errors.NewDBError("Falha ao atualizar status da solicitação", err)
	}
	// 3. Nenhuma linha afetada: Conflito (409)
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar atualização da solicitação", err)
	}
	if affected == 0 {
		return errors.NewConflictError(fmt.Sprintf("Solicitação %s não está mais em %s.", t.RequestID, t.From))
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row scanner) (domain.PickingRequest, error) {
	var (
		req         domain.PickingRequest
		notes       sql.NullString
		requestedBy sql.NullString
		operatorID  sql.NullString
		startedAt   sql.NullTime
		deliveredAt sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.OrderID,
		&req.StationID,
		&req.Status,
		&notes,
		&requestedBy,
		&operatorID,
		&req.RequestedAt,
		&startedAt,
		&deliveredAt,
	)
	if err != nil {
		return domain.PickingRequest{}, err
	}
	req.Notes = notes.String
	req.RequestedBy = requestedBy.String
	req.OperatorID = operatorID.String
	req.StartedAt = timePtr(startedAt)
	req.DeliveredAt = timePtr(deliveredAt)
	return req, nil
}

func scanView(row scanner) (domain.PickingRequestView, error) {
	var (
		v           domain.PickingRequestView
		notes       sql.NullString
		requestedBy sql.NullString
		operatorID  sql.NullString
		startedAt   sql.NullTime
		deliveredAt sql.NullTime
		lineLetter  sql.NullString
		areaName    sql.NullString
	)
	err := row.Scan(
		&v.ID,
		&v.OrderID,
		&v.StationID,
		&v.Status,
		&notes,
		&requestedBy,
		&operatorID,
		&v.RequestedAt,
		&startedAt,
		&deliveredAt,
		&v.HullID,
		&v.ModelName,
		&lineLetter,
		&v.StationName,
		&areaName,
	)
	if err != nil {
		return domain.PickingRequestView{}, err
	}
	v.Notes = notes.String
	v.RequestedBy = requestedBy.String
	v.OperatorID = operatorID.String
	v.StartedAt = timePtr(startedAt)
	v.DeliveredAt = timePtr(deliveredAt)
	v.LineLetter = lineLetter.String
	v.AreaName = areaName.String
	return v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
