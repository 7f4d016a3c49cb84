package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"estaleiro/config"
	"estaleiro/internal/pkg/cache"
	"estaleiro/internal/pkg/database"
	"estaleiro/internal/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "estaleiro",
	Short: "Ferramentas operacionais do Estaleiro MES",
	Long:  "Imprime a previsão de kitting a partir do banco configurado e mantém o cache da tabela de SLA.",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "logs de debug no stderr")
}

// env reúne a infraestrutura aberta por um subcomando.
type env struct {
	cfg   *config.Config
	log   logger.Logger
	db    *sql.DB
	cache cache.Client
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// errNoDatabase é devolvido quando o subcomando precisa do banco e DATABASE_URL falta.
var errNoDatabase = errors.New("DATABASE_URL não definida")

// openEnv carrega a configuração e abre o que o comando pedir.
// O log vai para stderr para não misturar com a saída do comando.
func openEnv(cmd *cobra.Command, withDB bool) (*env, error) {
	cfg := config.LoadToolConfig()

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	e := &env{cfg: cfg, log: logger.NewLoggerWithWriter(level, cmd.ErrOrStderr())}

	// Só o banco é opcional por subcomando; sla invalidate vive apenas com o Redis.
	if withDB {
		if cfg.DatabaseURL == "" {
			return nil, errNoDatabase
		}
		db, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("conectar ao banco: %w", err)
		}
		e.db = db
	}

	c, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		e.log.Warn("Redis indisponível.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	}
	e.cache = c
	return e, nil
}
