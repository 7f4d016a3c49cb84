package domain

import "time"

// OrderStatus é o ciclo de vida de uma ordem de produção.
type OrderStatus string

const (
	OrderPlanned    OrderStatus = "planejada"
	OrderInProgress OrderStatus = "em_producao"
	OrderFinished   OrderStatus = "concluida"
	OrderCancelled  OrderStatus = "cancelada"
)

// Model é uma entrada do catálogo de embarcações.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductionLine identifica a linha de montagem (A, B, C...).
type ProductionLine struct {
	ID     string `json:"id"`
	Letter string `json:"letter"`
}

// ProductionOrder é uma unidade de trabalho (um casco) em andamento.
type ProductionOrder struct {
	ID     string         `json:"id"`
	HullID string         `json:"hull_id"` // HIN ou número de casco
	Status OrderStatus    `json:"status"`
	Model  Model          `json:"model"`
	Line   ProductionLine `json:"line"`

	// StartDate é nil quando a ordem ainda não tem data de início registrada.
	StartDate *time.Time `json:"start_date,omitempty"`
}
