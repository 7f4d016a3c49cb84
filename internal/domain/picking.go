package domain

import "time"

// PickingStatus é o estado de uma solicitação de separação de kit.
type PickingStatus string

const (
	PickingPending   PickingStatus = "pendente"
	PickingInPicking PickingStatus = "em_separacao"
	PickingDelivered PickingStatus = "entregue"
)

// Next devolve o único estado seguinte permitido. O ciclo só anda para frente.
func (s PickingStatus) Next() (PickingStatus, bool) {
	switch s {
	case PickingPending:
		return PickingInPicking, true
	case PickingInPicking:
		return PickingDelivered, true
	default:
		return "", false
	}
}

// Valid informa se o status é um dos três estados conhecidos.
func (s PickingStatus) Valid() bool {
	switch s {
	case PickingPending, PickingInPicking, PickingDelivered:
		return true
	}
	return false
}

// PickingRequest é uma solicitação de kit para um posto, vinculada a uma ordem.
type PickingRequest struct {
	ID          string        `json:"id"`
	OrderID     string        `json:"order_id"`
	StationID   string        `json:"station_id"`
	Status      PickingStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	RequestedBy string        `json:"requested_by,omitempty"`
	OperatorID  string        `json:"operator_id,omitempty"`
	RequestedAt time.Time     `json:"requested_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	DeliveredAt *time.Time    `json:"delivered_at,omitempty"`
}

// PickingRequestView é a solicitação já unida a ordem, posto e área,
// no formato que a fila ao vivo exibe.
type PickingRequestView struct {
	PickingRequest
	HullID      string `json:"hull_id"`
	ModelName   string `json:"model_name"`
	LineLetter  string `json:"line_letter"`
	StationName string `json:"station_name"`
	AreaName    string `json:"area_name"`
}

// NewPickingRequest é o payload de criação de uma solicitação.
type NewPickingRequest struct {
	OrderID   string `json:"order_id"`
	StationID string `json:"station_id"`
	Notes     string `json:"notes"`
}

// PickingTransition descreve uma mudança de estado aplicada pelo repositório.
// A atualização só acontece se o status atual ainda for From.
type PickingTransition struct {
	RequestID  string
	From       PickingStatus
	To         PickingStatus
	At         time.Time
	OperatorID string
}

// PickingEvent é publicado no canal de pub/sub após cada mutação.
type PickingEvent struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
}

// Ações publicadas em PickingEvent.
const (
	PickingActionCreated   = "created"
	PickingActionStarted   = "started"
	PickingActionDelivered = "delivered"
)
