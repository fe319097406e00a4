// Package database manages the PostgreSQL connection pool.
package database

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"casefile-backend/internal/config"
)

// Service exposes the connection pool to handlers plus a health probe.
type Service interface {
	GetPool() *pgxpool.Pool
	Health() map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns the database service.
// Connection failure is fatal: the API is useless without its database.
func New(cfg *config.DBConfig) Service {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		log.Fatalf("Invalid DATABASE_URL: %v", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("[db] connected to PostgreSQL")
	return &service{pool: pool}
}

// GetPool returns the underlying pgx pool.
func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

// Health reports connectivity and pool stats for the /api/health endpoint.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "up"}
	if err := s.pool.Ping(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := s.pool.Stat()
	status["totalConns"] = strconv.Itoa(int(stats.TotalConns()))
	status["idleConns"] = strconv.Itoa(int(stats.IdleConns()))
	return status
}

// Close releases the pool.
func (s *service) Close() {
	s.pool.Close()
}

