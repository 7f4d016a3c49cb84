package routingrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"estaleiro/internal/domain"
	"estaleiro/internal/errors"
)

// RoutingRepository lê o roteiro de postos (transições entre estações).
type RoutingRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
}

func NewRoutingRepository(db *sql.DB, dbTimeout time.Duration) *RoutingRepository {
	return &RoutingRepository{DB: db, DBTimeout: dbTimeout}
}

// Postos sem área cadastrada continuam na lista; o projetor cai no SLA padrão.
const listKittingTransitionsSQL = `
	SELECT t.id, t.from_station_id, t.requires_kitting, t.lead_time_hours,
	       s.id, s.name,
	       a.id, a.name
	FROM station_transitions t
	JOIN stations s ON s.id = t.to_station_id
	LEFT JOIN areas a ON a.id = s.area_id
	WHERE t.requires_kitting = TRUE
	ORDER BY s.name, t.id`

// ListKittingTransitions devolve as transições que exigem kitting com o posto sucessor e sua área.
func (r *RoutingRepository) ListKittingTransitions(ctx context.Context) ([]domain.StationTransitionRule, error) {
	// 1. Contexto com timeout do banco
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Busca das transições com kitting
	rows, err := r.DB.QueryContext(ctxTimeout, listKittingTransitionsSQL)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar transições com kitting", err)
	}
	defer rows.Close()

	rules := make([]domain.StationTransitionRule, 0)
	for rows.Next() {
		var (
			rule     domain.StationTransitionRule
			fromID   sql.NullString
			lead     decimal.NullDecimal
			areaID   sql.NullString
			areaName sql.NullString
		)
		if err := rows.Scan(
			&rule.ID,
			&fromID,
			&rule.RequiresKitting,
			&lead,
			&rule.Successor.ID,
			&rule.Successor.Name,
			&areaID,
			&areaName,
		); err != nil {
			return nil, errors.NewDBError("Falha ao ler transição de posto", err)
		}
		// 3. Campos opcionais
		rule.FromStationID = fromID.String
		// Lead time nulo vale zero horas.
		rule.LeadTimeHours = decimal.Zero
		if lead.Valid {
			rule.LeadTimeHours = lead.Decimal
		}
		// Sem área: Area fica nil e a previsão usa o deslocamento padrão.
		if areaID.Valid {
			rule.Successor.Area = &domain.Area{ID: areaID.String, Name: areaName.String}
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar transições de posto", err)
	}
	return rules, nil
}
