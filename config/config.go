package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do Estaleiro MES.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache e Pub/Sub (Redis)
	RedisAddr      string
	CacheTimeout   time.Duration
	SLACacheTTL    time.Duration
	PickingChannel string

	// Segurança (JWT emitido pelo serviço de autenticação externo)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Previsão de kitting
	FactoryTimezone     string
	ForecastHorizonDays int

	// Fila de picking em tempo real (SSE)
	SSEHeartbeat time.Duration
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// DATABASE_URL e JWT_SECRET_KEY são obrigatórias para o servidor.
func LoadConfig() *Config {
	cfg := load()
	// Obrigatórias: o servidor não sobe sem banco nem chave de assinatura.
	cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	cfg.JWTSecretKey = mustGetEnv("JWT_SECRET_KEY")
	return cfg
}

// LoadToolConfig carrega as mesmas variáveis para as ferramentas de linha de comando.
// Nada é obrigatório aqui: cada subcomando confere o que realmente usa.
func LoadToolConfig() *Config {
	cfg := load()
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", "")
	return cfg
}

func load() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados
		DBTimeout: getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Redis
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:   getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		SLACacheTTL:    getDurationEnv("SLA_CACHE_TTL_SEC", 300) * time.Second,
		PickingChannel: getEnv("PICKING_CHANNEL", "picking:events"),

		// 4. Segurança
		TokenExpiry: getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Previsão
		FactoryTimezone:     getEnv("FACTORY_TIMEZONE", "America/Sao_Paulo"),
		ForecastHorizonDays: getIntEnv("FORECAST_HORIZON_DAYS", 3),

		// 7. SSE
		SSEHeartbeat: getDurationEnv("SSE_HEARTBEAT_SEC", 30) * time.Second,
	}

	return cfg
}

// Location resolve o fuso horário da fábrica, usado para truncar datas à meia-noite local.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.FactoryTimezone)
	if err != nil {
		return nil, fmt.Errorf("fuso horário inválido %q: %w", c.FactoryTimezone, err)
	}
	return loc, nil
}

// Funções Helpers

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável numérica e retorna-a como time.Duration (sem unidade).
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
