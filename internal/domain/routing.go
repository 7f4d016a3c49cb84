package domain

import "github.com/shopspring/decimal"

// Area é uma área da fábrica (laminação, montagem, acabamento...).
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Station é um posto de trabalho. Area é nil quando o posto não tem área cadastrada.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Area *Area  `json:"area,omitempty"`
}

// StationTransitionRule é uma aresta da sequência de postos.
// Quando RequiresKitting é verdadeiro, o almoxarifado precisa ser avisado
// LeadTimeHours antes de o casco chegar ao posto sucessor.
type StationTransitionRule struct {
	ID              string          `json:"id"`
	FromStationID   string          `json:"from_station_id"`
	Successor       Station         `json:"successor"`
	RequiresKitting bool            `json:"requires_kitting"`
	LeadTimeHours   decimal.Decimal `json:"lead_time_hours"`
}

// SuccessorAreaID devolve a área do posto sucessor, ou "" quando não resolvida.
func (r StationTransitionRule) SuccessorAreaID() string {
	if r.Successor.Area == nil {
		return ""
	}
	return r.Successor.Area.ID
}

// SuccessorAreaName devolve o nome da área do posto sucessor, ou "".
func (r StationTransitionRule) SuccessorAreaName() string {
	if r.Successor.Area == nil {
		return ""
	}
	return r.Successor.Area.Name
}
