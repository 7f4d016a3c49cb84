package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "estaleiro/docs" // registra o spec do swagger
	"estaleiro/internal/api/forecast"
	"estaleiro/internal/api/picking"
	"estaleiro/internal/domain"
	"estaleiro/internal/pkg/middleware"
)

// Dependencies reúne o que o roteador precisa, já montado pelo main.
type Dependencies struct {
	ForecastHandler *forecast.Handler
	PickingHandler  *picking.Handler
	TokenService    middleware.TokenService
	Metrics         http.Handler
	// Middlewares globais, aplicados na ordem (o primeiro é o mais externo).
	Global []func(http.Handler) http.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", PingHandler)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	auth := middleware.NewAuthMiddleware(deps.TokenService)
	creators := middleware.PermissionMiddleware(domain.RoleProduction, domain.RoleLogistics, domain.RoleAdmin)
	operators := middleware.PermissionMiddleware(domain.RoleLogistics, domain.RoleAdmin)

	// --- Kitting ---
	mux.HandleFunc("GET /v1/kitting/forecast", auth(deps.ForecastHandler.GetForecastHandler))

	// --- Fila de picking ---
	mux.HandleFunc("GET /v1/picking", auth(deps.PickingHandler.ListHandler))
	mux.HandleFunc("POST /v1/picking", auth(creators(deps.PickingHandler.CreateHandler)))
	mux.HandleFunc("GET /v1/picking/stream", auth(deps.PickingHandler.StreamHandler))
	mux.HandleFunc("POST /v1/picking/{id}/start", auth(operators(deps.PickingHandler.StartHandler)))
	mux.HandleFunc("POST /v1/picking/{id}/deliver", auth(operators(deps.PickingHandler.DeliverHandler)))

	var handler http.Handler = mux
	for i := len(deps.Global) - 1; i >= 0; i-- {
		handler = deps.Global[i](handler)
	}
	return handler
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
