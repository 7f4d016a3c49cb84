package picking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"estaleiro/internal/domain"
	apperror "estaleiro/internal/errors"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
	"estaleiro/internal/pkg/middleware"
	"estaleiro/internal/pkg/sse"
)

// PickingService define o contrato que o Handler espera da camada de Serviço.
type PickingService interface {
	CreateRequest(ctx context.Context, in domain.NewPickingRequest, requestedBy string) (domain.PickingRequest, error)
	StartPicking(ctx context.Context, id, operatorID string) (domain.PickingRequest, error)
	Deliver(ctx context.Context, id, operatorID string) (domain.PickingRequest, error)
	List(ctx context.Context) ([]domain.PickingRequestView, error)
}

// Handler agrupa os endpoints da fila de picking.
type Handler struct {
	Service   PickingService
	Hub       *sse.Hub
	Logger    logger.Logger
	Metrics   *metrics.Registry
	Heartbeat time.Duration

	// Done encerra os streams abertos no desligamento do servidor.
	// As demais requisições não dependem dele e terminam normalmente.
	Done <-chan struct{}
}

func NewHandler(svc PickingService, hub *sse.Hub, log logger.Logger, reg *metrics.Registry, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Handler{
		Service:   svc,
		Hub:       hub,
		Logger:    log,
		Metrics:   reg,
		Heartbeat: heartbeat,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// ListHandler godoc
// @Summary Fila de picking
// @Description Solicitações abertas e as entregues desde a meia-noite, por ordem de chegada.
// @Tags picking
// @Produce json
// @Success 200 {array} domain.PickingRequestView "Fila atual"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /picking [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context())
	h.handleServiceResponse(w, r, views, err, http.StatusOK)
}

// CreateHandler godoc
// @Summary Cria uma solicitação de picking
// @Description Registra um pedido de kit para um posto, vinculado a uma ordem, com status "pendente".
// @Tags picking
// @Accept json
// @Produce json
// @Param request body domain.NewPickingRequest true "Ordem, posto e observações"
// @Success 201 {object} domain.PickingRequest "Solicitação criada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Papel sem permissão"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /picking [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.NewPickingRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	claims, _ := middleware.GetUserClaimsFromContext(r.Context())
	req, err := h.Service.CreateRequest(r.Context(), in, claims.UserID)
	h.handleServiceResponse(w, r, req, err, http.StatusCreated)
}

// StartHandler godoc
// @Summary Inicia a separação
// @Description Move a solicitação de "pendente" para "em_separacao". Qualquer outro estado devolve 409.
// @Tags picking
// @Produce json
// @Param id path string true "ID da solicitação"
// @Success 200 {object} domain.PickingRequest "Separação iniciada"
// @Failure 404 {object} domain.ErrorResponse "Solicitação não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Transição inválida"
// @Security ApiKeyAuth
// @Router /picking/{id}/start [post]
func (h *Handler) StartHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserClaimsFromContext(r.Context())
	req, err := h.Service.StartPicking(r.Context(), r.PathValue("id"), claims.UserID)
	h.handleServiceResponse(w, r, req, err, http.StatusOK)
}

// DeliverHandler godoc
// @Summary Entrega o kit
// @Description Move a solicitação de "em_separacao" para "entregue" e registra o operador.
// @Tags picking
// @Produce json
// @Param id path string true "ID da solicitação"
// @Success 200 {object} domain.PickingRequest "Kit entregue"
// @Failure 404 {object} domain.ErrorResponse "Solicitação não encontrada"
// @Failure 409 {object} domain.ErrorResponse "Transição inválida"
// @Security ApiKeyAuth
// @Router /picking/{id}/deliver [post]
func (h *Handler) DeliverHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserClaimsFromContext(r.Context())
	req, err := h.Service.Deliver(r.Context(), r.PathValue("id"), claims.UserID)
	h.handleServiceResponse(w, r, req, err, http.StatusOK)
}

// StreamHandler godoc
// @Summary Eventos da fila de picking (SSE)
// @Description Stream text/event-stream com um evento picking_update a cada mudança na fila.
// @Tags picking
// @Produce text/event-stream
// @Param token query string false "JWT, para clientes EventSource sem header"
// @Success 200 {string} string "stream"
// @Security ApiKeyAuth
// @Router /picking/stream [get]
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewInternalError("Streaming não suportado pelo servidor.", nil), 0)
		return
	}

	claims, _ := middleware.GetUserClaimsFromContext(r.Context())
	client := sse.NewClient(uuid.New().String(), claims.UserID)
	h.setClients(h.Hub.Register(client))
	defer func() { h.setClients(h.Hub.Unregister(client.ID)) }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sse.WriteEvent(w, sse.Event{EventType: "connected", Data: fmt.Sprintf(`{"client_id":%q}`, client.ID)})
	flusher.Flush()

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.Done:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := sse.WriteEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if err := sse.WriteKeepAlive(w); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) setClients(n int) {
	if h.Metrics != nil {
		h.Metrics.SSEClients.Set(float64(n))
	}
}
