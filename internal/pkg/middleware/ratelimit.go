package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/logger"
	"estaleiro/internal/pkg/metrics"
)

// RateLimiter aplica uma janela fixa por IP com contadores no Redis.
// Se o Redis falhar, a requisição passa: o chão de fábrica não para por causa do limitador.
func RateLimiter(client cache.Client, limit int, duration time.Duration, log logger.Logger, reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Chave por IP
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			// 2. Primeira requisição da janela: cria o contador com TTL
			count, err := client.GetInt(ctx, key)
			if errors.Is(err, cache.ErrCacheMiss) {
				if setErr := client.Set(ctx, key, 1, duration); setErr != nil {
					log.Warn("Falha ao iniciar janela do rate limit.", map[string]interface{}{"ip": ip, "error": setErr.Error()})
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			} else if err != nil {
				log.Warn("Rate limit indisponível, requisição liberada.", map[string]interface{}{"ip": ip, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			// 3. Limite atingido: 429
			if count >= limit {
				if reg != nil {
					reg.RateLimited.Inc()
				}
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			if _, err := client.Incr(ctx, key); err != nil {
				log.Warn("Falha ao incrementar rate limit.", map[string]interface{}{"ip": ip, "error": err.Error()})
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count-1))
			next.ServeHTTP(w, r)
		})
	}
}
