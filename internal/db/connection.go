package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sebuszqo/PayBillsWithUs/internal/config"
	"go.uber.org/zap"
)

// DBService represents a service that interacts with a database.
type DBService struct {
	DB     *sql.DB
	logger *zap.Logger
}

// NewDBService opens the pgx-backed pool described by cfg and verifies it with a ping.
func NewDBService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DBService, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	return &DBService{DB: db, logger: logger}, nil
}

// Health pings the database and reports its status along with pool statistics.
func (s *DBService) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)

	err := s.DB.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	poolStats := s.DB.Stats()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["open_connections"] = fmt.Sprint(poolStats.OpenConnections)
	stats["in_use"] = fmt.Sprint(poolStats.InUse)
	stats["idle"] = fmt.Sprint(poolStats.Idle)
	return stats
}

func (s *DBService) Close() error {
	s.logger.Info("closing database connection")
	return s.DB.Close()
}
