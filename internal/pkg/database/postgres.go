package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Driver PostgreSQL registrado como "postgres".
	_ "github.com/lib/pq"
)

// NewPostgresDB abre o pool de conexões com o PostgreSQL e verifica o acesso com um ping.
func NewPostgresDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	// Pool dimensionado para o tráfego de chão de fábrica (dezenas de terminais).
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}
