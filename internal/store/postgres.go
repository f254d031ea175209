package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

const defaultPoolSize = 10

// priceEpsilon bounds float comparison when deciding whether a scraped
// price differs from the stored one.
const priceEpsilon = 0.001

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// CreateProduct inserts a tracked product, or refreshes the name when the
// URL is already tracked.
func (s *PostgresStore) CreateProduct(ctx context.Context, p *types.TrackedProduct) error {
	args := pgx.NamedArgs{
		"url":           p.URL,
		"name":          p.Name,
		"current_price": p.CurrentPrice,
		"active":        p.Active,
	}
	if err := s.pool.QueryRow(ctx, queryCreateProduct, args).Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by its UUID.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*types.TrackedProduct, error) {
	return s.getProduct(ctx, queryGetProduct, id)
}

// GetProductByURL retrieves a product by its canonical URL.
func (s *PostgresStore) GetProductByURL(ctx context.Context, url string) (*types.TrackedProduct, error) {
	return s.getProduct(ctx, queryGetProductByURL, url)
}

func (s *PostgresStore) getProduct(ctx context.Context, query, key string) (*types.TrackedProduct, error) {
	p := &types.TrackedProduct{}
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&p.ID, &p.URL, &p.Name, &p.CurrentPrice, &p.Active,
		&p.CreatedAt, &p.UpdatedAt, &p.LastCheckAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListActiveProducts returns every product with the active flag set.
func (s *PostgresStore) ListActiveProducts(ctx context.Context) ([]types.TrackedProduct, error) {
	rows, err := s.pool.Query(ctx, queryListActiveProducts)
	if err != nil {
		return nil, fmt.Errorf("querying active products: %w", err)
	}
	defer rows.Close()

	var products []types.TrackedProduct
	for rows.Next() {
		var p types.TrackedProduct
		if err := rows.Scan(
			&p.ID, &p.URL, &p.Name, &p.CurrentPrice, &p.Active,
			&p.CreatedAt, &p.UpdatedAt, &p.LastCheckAt,
		); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// SetProductActive toggles a product's active flag.
func (s *PostgresStore) SetProductActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, querySetProductActive, id, active)
	if err != nil {
		return fmt.Errorf("setting product active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePrice stores the scraped price. The row is locked, compared with
// the stored value, and a price_history row is appended in the same
// transaction iff the price changed. An unchanged price only advances the
// last-check timestamp.
func (s *PostgresStore) UpdatePrice(ctx context.Context, id string, price float64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var stored *float64
	err = tx.QueryRow(ctx, querySelectPriceForUpdate, id).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("locking product row: %w", err)
	}

	if stored != nil && abs(*stored-price) < priceEpsilon {
		if _, err := tx.Exec(ctx, queryTouchProduct, id); err != nil {
			return false, fmt.Errorf("touching product: %w", err)
		}
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, queryUpdateProductPrice, id, price); err != nil {
		return false, fmt.Errorf("updating product price: %w", err)
	}
	if _, err := tx.Exec(ctx, queryInsertObservation, id, price); err != nil {
		return false, fmt.Errorf("appending price observation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing price update: %w", err)
	}
	return true, nil
}

// LowestObservedPrice returns the all-time minimum observed price, or nil
// when the product has no history yet.
func (s *PostgresStore) LowestObservedPrice(ctx context.Context, id string) (*float64, error) {
	var lowest *float64
	if err := s.pool.QueryRow(ctx, queryLowestObservedPrice, id).Scan(&lowest); err != nil {
		return nil, fmt.Errorf("querying lowest price: %w", err)
	}
	return lowest, nil
}

// CreateAlert inserts a new alert.
func (s *PostgresStore) CreateAlert(ctx context.Context, a *types.Alert) error {
	args := pgx.NamedArgs{
		"product_id":           a.ProductID,
		"chat_id":              a.ChatID,
		"alert_type":           string(a.Type),
		"threshold_price":      a.ThresholdPrice,
		"percentage_threshold": a.PercentageThreshold,
		"active":               a.Active,
	}
	if err := s.pool.QueryRow(ctx, queryCreateAlert, args).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}
	return nil
}

// ListActiveAlerts returns the active alerts attached to a product.
func (s *PostgresStore) ListActiveAlerts(ctx context.Context, productID string) ([]types.Alert, error) {
	rows, err := s.pool.Query(ctx, queryListActiveAlerts, productID)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		if err := rows.Scan(
			&a.ID, &a.ProductID, &a.ChatID, &a.Type,
			&a.ThresholdPrice, &a.PercentageThreshold,
			&a.Active, &a.LastTriggeredAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertTriggered stamps the alert's last-triggered time.
func (s *PostgresStore) MarkAlertTriggered(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryMarkAlertTriggered, id)
	if err != nil {
		return fmt.Errorf("marking alert triggered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
