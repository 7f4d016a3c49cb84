package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"estaleiro/config"
	"estaleiro/internal/pkg/database"
	"estaleiro/internal/pkg/logger"
)

// gooseLogger encaminha as mensagens do goose para o logger JSON da aplicação.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(fmt.Sprintf(format, v...), nil)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal(fmt.Sprintf(format, v...), nil)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema: %v", err)
	}

	// Só o banco importa aqui; a chave JWT não é exigida.
	cfg := config.LoadToolConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		appLog.Fatal("goose: DATABASE_URL deve ser definida.", nil)
	}

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com as migrations")
	flag.Parse()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("goose: falha ao conectar ao banco.", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLog.Error("goose: falha ao fechar conexão.", err)
		}
	}()

	goose.SetLogger(gooseLogger{log: appLog})
	if err := goose.SetDialect("postgres"); err != nil {
		appLog.Fatal("goose: dialeto não suportado.", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		appLog.Fatal(fmt.Sprintf("goose %s falhou.", command), err)
	}

	appLog.Info(fmt.Sprintf("goose %s concluído.", command), map[string]interface{}{"dir": migrationsDir})
}
