package forecast

import (
	"context"
	"encoding/json"
	"net/http"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/logger"
)

// ForecastService define o contrato que o Handler espera da camada de Serviço.
type ForecastService interface {
	GetForecast(ctx context.Context) ([]domain.ForecastEntry, error)
	GetForecastByBucket(ctx context.Context, mergeOverdue bool) ([]domain.BucketColumn, error)
}

// Handler expõe a previsão de kitting ao painel do almoxarifado.
type Handler struct {
	Service ForecastService
	Logger  logger.Logger
}

func NewHandler(svc ForecastService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// respond escreve o envelope {success, data, error}. Na falha data é sempre [].
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	result := domain.ForecastResult{Success: true, Data: data}
	status := http.StatusOK

	if err != nil {
		var category string
		var message string
		status, category, message = apperror.MapToHTTPStatus(err)
		if status >= 500 {
			h.Logger.Error("Falha ao calcular previsão de kitting: "+category, err)
		} else {
			h.Logger.Debug("Requisição de previsão rejeitada.", map[string]interface{}{"path": r.URL.Path, "status": status})
		}
		result = domain.ForecastResult{Success: false, Data: []domain.ForecastEntry{}, Error: message}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if jsonErr := json.NewEncoder(w).Encode(result); jsonErr != nil {
		h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
	}
}

// GetForecastHandler godoc
// @Summary Previsão de kitting
// @Description Projeta, para cada casco em produção e cada transição com kitting, quando o kit precisa estar no posto.
// @Description Com group=bucket a resposta vem em colunas (Em Atraso, Hoje, Amanhã, Futuro); merge=1 junta atrasados em Hoje.
// @Tags kitting
// @Produce json
// @Param group query string false "Agrupamento" Enums(bucket)
// @Param merge query bool false "Junta 'Em Atraso (Hoje)' na coluna 'Hoje'"
// @Success 200 {object} domain.ForecastResult "Previsão calculada"
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Failure 500 {object} domain.ForecastResult "Falha ao ler ordens, roteiro ou SLA"
// @Security ApiKeyAuth
// @Router /kitting/forecast [get]
func (h *Handler) GetForecastHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch q.Get("group") {
	case "":
		// Lista plana ordenada por due_at
		entries, err := h.Service.GetForecast(r.Context())
		h.respond(w, r, entries, err)
	case "bucket":
		merge := q.Get("merge") == "1" || q.Get("merge") == "true"
		columns, err := h.Service.GetForecastByBucket(r.Context(), merge)
		h.respond(w, r, columns, err)
	default:
		h.respond(w, r, nil, apperror.NewValidationError("Parâmetro group aceita apenas 'bucket'."))
	}
}
