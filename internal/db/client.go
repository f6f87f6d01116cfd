package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/metrics"
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
}

// Client manages the Postgres connection pool and an async write queue for
// search history. History writes are best-effort: they never block or fail
// a request, only surface in logs and metrics.
type Client struct {
	db     *sqlx.DB
	logger *zap.Logger
	config *Config

	writeQueue chan *SearchHistory
	stopCh     chan struct{}
	workerWg   sync.WaitGroup
}

// NewClient creates a new database client with a connection pool and
// starts the history write workers.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config.MaxConnections == 0 {
		config.MaxConnections = 25
	}
	if config.IdleConnections == 0 {
		config.IdleConnections = 5
	}
	if config.MaxLifetime == 0 {
		config.MaxLifetime = 5 * time.Minute
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	database, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	database.SetMaxOpenConns(config.MaxConnections)
	database.SetMaxIdleConns(config.IdleConnections)
	database.SetConnMaxLifetime(config.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &Client{
		db:         database,
		logger:     logger,
		config:     config,
		writeQueue: make(chan *SearchHistory, 256),
		stopCh:     make(chan struct{}),
	}
	client.startWorkers(4)

	logger.Info("Database client initialized",
		zap.String("host", config.Host),
		zap.Int("max_connections", config.MaxConnections),
	)
	return client, nil
}

// startWorkers launches the async history writers.
func (c *Client) startWorkers(n int) {
	for i := 0; i < n; i++ {
		c.workerWg.Add(1)
		go c.writeWorker(i)
	}
}

// writeWorker drains the history queue until shutdown.
func (c *Client) writeWorker(id int) {
	defer c.workerWg.Done()
	for {
		select {
		case <-c.stopCh:
			c.drainQueue()
			c.logger.Debug("History write worker stopped", zap.Int("worker_id", id))
			return
		case rec := <-c.writeQueue:
			c.persist(rec)
		}
	}
}

// persist executes one history insert, containing any failure.
func (c *Client) persist(rec *SearchHistory) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.SaveSearchHistory(ctx, rec); err != nil {
		metrics.HistoryWrites.WithLabelValues("error").Inc()
		c.logger.Error("Failed to save search history",
			zap.String("query", rec.Query),
			zap.Error(err),
		)
		return
	}
	metrics.HistoryWrites.WithLabelValues("ok").Inc()
}

// drainQueue persists remaining records during shutdown so queued history
// is not silently dropped.
func (c *Client) drainQueue() {
	timeout := time.After(10 * time.Second)
	for {
		select {
		case rec := <-c.writeQueue:
			c.persist(rec)
		case <-timeout:
			c.logger.Warn("Timeout draining history write queue")
			return
		default:
			return
		}
	}
}

// QueueSearchHistory hands a record to the async writers without blocking.
// When the queue is full a one-off writer goroutine takes the record, so
// overflow never stalls the caller and the record is not dropped. Overflow
// writers join workerWg, keeping the drain guarantee on Close.
func (c *Client) QueueSearchHistory(rec *SearchHistory) {
	select {
	case c.writeQueue <- rec:
	default:
		c.logger.Warn("History write queue is full, spawning one-off writer")
		c.workerWg.Add(1)
		go func() {
			defer c.workerWg.Done()
			c.persist(rec)
		}()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close stops the write workers, drains the queue and closes the pool.
func (c *Client) Close() error {
	c.logger.Info("Shutting down database client")
	close(c.stopCh)
	c.workerWg.Wait()
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
