package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"estaleiro/internal/domain"
	"estaleiro/internal/repository/orderrepo"
	"estaleiro/internal/repository/routingrepo"
	"estaleiro/internal/repository/timingrepo"
	"estaleiro/internal/service/forecastservice"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Imprime a previsão de kitting",
	Long: `Calcula a previsão de kitting contra o banco configurado, do mesmo jeito que
o endpoint /v1/kitting/forecast. --now permite simular outro instante.`,
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().String("now", "", "instante de referência (RFC3339); padrão: agora")
	forecastCmd.Flags().Bool("json", false, "saída JSON no mesmo envelope da API")
	forecastCmd.Flags().Bool("group", false, "agrupa por faixa (Em Atraso, Hoje, Amanhã, Futuro)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	nowFlag, _ := cmd.Flags().GetString("now")
	asJSON, _ := cmd.Flags().GetBool("json")
	group, _ := cmd.Flags().GetBool("group")

	now := time.Now()
	if nowFlag != "" {
		parsed, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return fmt.Errorf("forecast: --now inválido: %w", err)
		}
		now = parsed
	}

	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	loc, err := e.cfg.Location()
	if err != nil {
		return err
	}

	svc := forecastservice.NewService(
		orderrepo.NewOrderRepository(e.db, e.cfg.DBTimeout),
		routingrepo.NewRoutingRepository(e.db, e.cfg.DBTimeout),
		timingrepo.NewTimingRepository(e.db, e.cache, e.cfg.DBTimeout, e.cfg.SLACacheTTL, e.log),
		e.log,
		forecastservice.WithClock(func() time.Time { return now }),
		forecastservice.WithLocation(loc),
		forecastservice.WithHorizonDays(e.cfg.ForecastHorizonDays),
	)

	entries, err := svc.GetForecast(cmd.Context())
	if err != nil {
		if asJSON {
			writeJSON(cmd.OutOrStdout(), domain.ForecastResult{Success: false, Data: []domain.ForecastEntry{}, Error: err.Error()})
		}
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON && group:
		return writeJSON(out, domain.ForecastResult{Success: true, Data: forecastservice.GroupByBucket(entries, false)})
	case asJSON:
		return writeJSON(out, domain.ForecastResult{Success: true, Data: entries})
	case group:
		renderColumns(out, forecastservice.GroupByBucket(entries, false), loc)
	default:
		renderTable(out, entries, loc)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	bucketColors = map[domain.Bucket]lipgloss.Color{
		domain.BucketOverdue:  lipgloss.Color("196"),
		domain.BucketToday:    lipgloss.Color("214"),
		domain.BucketTomorrow: lipgloss.Color("39"),
		domain.BucketFuture:   lipgloss.Color("245"),
	}
)

func bucketLabel(b domain.Bucket) string {
	return lipgloss.NewStyle().Bold(true).Foreground(bucketColors[b]).Render(string(b))
}

func entryRow(e domain.ForecastEntry, loc *time.Location) []string {
	return []string{
		e.DueAt.In(loc).Format("02/01 15:04"),
		e.HullID,
		e.ModelName,
		e.LineLetter,
		e.StationName,
		e.AreaName,
		fmt.Sprintf("%gh", e.LeadTimeHours),
	}
}

var tableHeaders = []string{"PREVISTO", "CASCO", "MODELO", "LINHA", "POSTO", "ÁREA", "LEAD"}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeaders...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderTable imprime a lista plana, já ordenada pela data prevista.
func renderTable(w io.Writer, entries []domain.ForecastEntry, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nenhum kitting previsto na janela.")
		return
	}
	t := newTable().Headers(append([]string{"FAIXA"}, tableHeaders...)...)
	for _, e := range entries {
		t.Row(append([]string{bucketLabel(e.Bucket)}, entryRow(e, loc)...)...)
	}
	fmt.Fprintln(w, t.Render())
}

// renderColumns imprime uma tabela por faixa, no formato da impressão do almoxarifado.
func renderColumns(w io.Writer, columns []domain.BucketColumn, loc *time.Location) {
	var sb strings.Builder
	for _, col := range columns {
		fmt.Fprintf(&sb, "%s (%d)\n", bucketLabel(col.Bucket), len(col.Entries))
		if len(col.Entries) == 0 {
			sb.WriteString("  —\n\n")
			continue
		}
		t := newTable()
		for _, e := range col.Entries {
			t.Row(entryRow(e, loc)...)
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n\n")
	}
	fmt.Fprint(w, sb.String())
}
