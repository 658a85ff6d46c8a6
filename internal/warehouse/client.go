package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pmani/ad-mosaic/internal/config"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// Client provides access to the ads warehouse
type Client struct {
	config config.WarehouseConfig
	db     *sql.DB
}

// NewClient opens a pooled connection to the warehouse.
func NewClient(cfg config.WarehouseConfig) (*Client, error) {
	// Build DSN (Data Source Name)
	// Format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)

	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Client{
		config: cfg,
		db:     db,
	}, nil
}

// NewClientWithDB wraps an existing database handle. Used by tests.
func NewClientWithDB(cfg config.WarehouseConfig, db *sql.DB) *Client {
	return &Client{config: cfg, db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB exposes the underlying handle for services that issue their own queries.
func (c *Client) DB() *sql.DB {
	return c.db
}

// ListTables returns the table names in the configured schema, sorted.
// Feeds the table picker in the page-creation form.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = CURRENT_SCHEMA()
		ORDER BY TABLE_NAME
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}
