package forecastservice

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"estaleiro/internal/domain"
)

// DefaultHorizonDays é a janela de antecedência exibida ao almoxarifado.
// Previsões com mais de DefaultHorizonDays dias de distância são descartadas.
const DefaultHorizonDays = 3

var (
	hoursPerDay = decimal.NewFromInt(24)
	nanosPerDay = decimal.NewFromInt(int64(24 * time.Hour))
)

type timingKey struct {
	modelID string
	areaID  string
}

// TimingIndex indexa a tabela de SLA por (modelo, área).
type TimingIndex map[timingKey]domain.ModelAreaTiming

// NewTimingIndex monta o índice. Em chaves duplicadas vale a primeira linha.
func NewTimingIndex(rows []domain.ModelAreaTiming) TimingIndex {
	idx := make(TimingIndex, len(rows))
	for _, row := range rows {
		k := timingKey{modelID: row.ModelID, areaID: row.AreaID}
		if _, exists := idx[k]; !exists {
			idx[k] = row
		}
	}
	return idx
}

// Lookup busca o SLA do modelo na área. found é falso quando não há linha
// cadastrada ou quando a área do posto não foi resolvida (areaID vazio).
func (idx TimingIndex) Lookup(modelID, areaID string) (timing domain.ModelAreaTiming, found bool) {
	if areaID == "" {
		return domain.ModelAreaTiming{}, false
	}
	timing, found = idx[timingKey{modelID: modelID, areaID: areaID}]
	return timing, found
}

// ResolveOffsetDays aplica a política de "SLA não configurado": sem linha, o deslocamento é zero.
func ResolveOffsetDays(timing domain.ModelAreaTiming, found bool) decimal.Decimal {
	if !found {
		return decimal.Zero
	}
	return timing.OffsetDays
}

// AdjustedOffsetDays antecipa a chegada prevista pelo lead time do kitting,
// convertido em fração de dia.
func AdjustedOffsetDays(offsetDays, leadTimeHours decimal.Decimal) decimal.Decimal {
	return offsetDays.Sub(leadTimeHours.Div(hoursPerDay))
}

// DueInstant soma max(0, adjustedDays) dias ao início da ordem.
// Os dias inteiros são somados no calendário (AddDate) e a fração restante como duração,
// preservando horas e minutos.
func DueInstant(start time.Time, adjustedDays decimal.Decimal) time.Time {
	if adjustedDays.IsNegative() {
		return start
	}
	whole := adjustedDays.Floor()
	frac := adjustedDays.Sub(whole)

	due := start.AddDate(0, 0, int(whole.IntPart()))
	return due.Add(time.Duration(frac.Mul(nanosPerDay).Round(0).IntPart()))
}

// DateOnly trunca o instante para a meia-noite local no fuso da fábrica.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DiffDays conta os dias de calendário entre duas datas (due - today).
// A conta é feita sobre as datas civis, então dias de 23h ou 25h no horário de verão
// não alteram o resultado.
func DiffDays(dueDate, today time.Time) int {
	d := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t) / (24 * time.Hour))
}

// Classify coloca a data prevista em uma das quatro faixas.
func Classify(dueDate, today time.Time) domain.Bucket {
	switch diff := DiffDays(dueDate, today); {
	case diff == 0:
		return domain.BucketToday
	case diff == 1:
		return domain.BucketTomorrow
	case diff < 0:
		return domain.BucketOverdue
	default:
		return domain.BucketFuture
	}
}

// OrderStart resolve a data de início usada na projeção.
// Datas vindas do banco (DATE) são lidas como data civil no fuso da fábrica;
// sem data de início, a ordem é projetada a partir de now.
func OrderStart(order domain.ProductionOrder, now time.Time, loc *time.Location) time.Time {
	if order.StartDate == nil {
		return now.In(loc)
	}
	sd := *order.StartDate
	return time.Date(sd.Year(), sd.Month(), sd.Day(), 0, 0, 0, 0, loc)
}

// Projection reúne as entradas da projeção; todos os campos são lidos, nenhum é alterado.
type Projection struct {
	Orders      []domain.ProductionOrder
	Rules       []domain.StationTransitionRule
	Timings     []domain.ModelAreaTiming
	Now         time.Time
	Location    *time.Location
	HorizonDays int
}

// Project cruza todas as ordens com todas as transições que exigem kitting,
// calcula a data prevista de cada par, classifica, filtra pela janela e
// devolve a lista ordenada pela data prevista.
func Project(p Projection) []domain.ForecastEntry {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	index := NewTimingIndex(p.Timings)
	today := DateOnly(p.Now, loc)

	entries := make([]domain.ForecastEntry, 0)
	for _, order := range p.Orders {
		if order.Status != domain.OrderInProgress {
			continue
		}
		start := OrderStart(order, p.Now, loc)

		for _, rule := range p.Rules {
			if !rule.RequiresKitting {
				continue
			}
			entry, keep := projectPair(order, rule, index, start, today, loc, p.HorizonDays)
			if keep {
				entries = append(entries, entry)
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DueAt.Before(entries[j].DueAt)
	})
	return entries
}

func projectPair(
	order domain.ProductionOrder,
	rule domain.StationTransitionRule,
	index TimingIndex,
	start, today time.Time,
	loc *time.Location,
	horizonDays int,
) (domain.ForecastEntry, bool) {
	offset := ResolveOffsetDays(index.Lookup(order.Model.ID, rule.SuccessorAreaID()))
	adjusted := AdjustedOffsetDays(offset, rule.LeadTimeHours)

	dueAt := DueInstant(start, adjusted)
	dueDate := DateOnly(dueAt, loc)

	if DiffDays(dueDate, today) > horizonDays {
		return domain.ForecastEntry{}, false
	}

	return domain.ForecastEntry{
		ID:            fmt.Sprintf("%s-%s", order.ID, rule.ID),
		OrderID:       order.ID,
		RuleID:        rule.ID,
		HullID:        order.HullID,
		ModelName:     order.Model.Name,
		LineLetter:    order.Line.Letter,
		StationName:   rule.Successor.Name,
		AreaName:      rule.SuccessorAreaName(),
		LeadTimeHours: rule.LeadTimeHours.InexactFloat64(),
		Bucket:        Classify(dueDate, today),
		DueAt:         dueAt,
		DueDate:       dueDate,
	}, true
}

// GroupByBucket separa as entradas em colunas na ordem de exibição.
// Com mergeOverdue, as atrasadas entram na coluna "Hoje" (na frente, pois vencem antes).
func GroupByBucket(entries []domain.ForecastEntry, mergeOverdue bool) []domain.BucketColumn {
	byBucket := make(map[domain.Bucket][]domain.ForecastEntry, len(domain.Buckets))
	for _, e := range entries {
		b := e.Bucket
		if mergeOverdue && b == domain.BucketOverdue {
			b = domain.BucketToday
		}
		byBucket[b] = append(byBucket[b], e)
	}

	columns := make([]domain.BucketColumn, 0, len(domain.Buckets))
	for _, b := range domain.Buckets {
		if mergeOverdue && b == domain.BucketOverdue {
			continue
		}
		col := domain.BucketColumn{Bucket: b, Entries: byBucket[b]}
		if col.Entries == nil {
			col.Entries = []domain.ForecastEntry{}
		}
		columns = append(columns, col)
	}
	return columns
}
