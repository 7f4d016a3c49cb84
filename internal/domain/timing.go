package domain

import "github.com/shopspring/decimal"

// ModelAreaTiming é a tabela de SLA por (modelo, área):
// OffsetDays é quantos dias após o início da ordem o casco chega à área,
// DurationDays quanto tempo ele permanece nela.
type ModelAreaTiming struct {
	ModelID      string          `json:"model_id"`
	AreaID       string          `json:"area_id"`
	OffsetDays   decimal.Decimal `json:"offset_days"`
	DurationDays decimal.Decimal `json:"duration_days"`
}
