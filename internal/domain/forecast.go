package domain

import "time"

// Bucket é a faixa de urgência de uma previsão de kitting.
type Bucket string

const (
	BucketOverdue  Bucket = "Em Atraso (Hoje)"
	BucketToday    Bucket = "Hoje"
	BucketTomorrow Bucket = "Amanhã"
	BucketFuture   Bucket = "Futuro"
)

// Buckets lista as faixas na ordem em que o painel do almoxarifado as exibe.
var Buckets = []Bucket{BucketOverdue, BucketToday, BucketTomorrow, BucketFuture}

// ForecastEntry é uma previsão derivada de exatamente um par (ordem, transição).
// Não é persistida: é recalculada a cada consulta.
type ForecastEntry struct {
	ID            string  `json:"id"` // "<order_id>-<rule_id>"
	OrderID       string  `json:"order_id"`
	RuleID        string  `json:"rule_id"`
	HullID        string  `json:"hull_id"`
	ModelName     string  `json:"model_name"`
	LineLetter    string  `json:"line_letter"`
	StationName   string  `json:"station_name"`
	AreaName      string  `json:"area_name"`
	LeadTimeHours float64 `json:"lead_time_hours"`
	Bucket        Bucket  `json:"bucket"`

	// DueAt mantém a hora exata (ordenação e exibição);
	// DueDate é a mesma data truncada à meia-noite local (classificação).
	DueAt   time.Time `json:"due_at"`
	DueDate time.Time `json:"due_date"`
}

// BucketColumn agrupa entradas de uma faixa para a camada de apresentação.
type BucketColumn struct {
	Bucket  Bucket          `json:"bucket"`
	Entries []ForecastEntry `json:"entries"`
}

// ForecastResult é o envelope devolvido pela API de previsão.
// Em caso de falha Data é vazio e Error traz a mensagem: nunca há resultado parcial.
type ForecastResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}
