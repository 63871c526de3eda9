package history

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"eatsdash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Source yields the raw past orders of an account.
type Source interface {
	PastOrders(ctx context.Context, entryID string) ([]models.PastOrder, error)
}

// Repository reads past orders from Postgres.
type Repository struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

func NewRepository(pool *pgxpool.Pool, log *zap.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Migrate applies the embedded schema files in name order.
func (r *Repository) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		r.log.Debug("migration applied", zap.String("name", name))
	}
	return nil
}

func (r *Repository) PastOrders(ctx context.Context, entryID string) ([]models.PastOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_uuid, store_uuid, restaurant_name, total::float8, delivery_fee::float8,
		       is_cancelled, completed_at
		FROM past_orders
		WHERE entry_id = $1
		ORDER BY completed_at DESC NULLS LAST`, entryID)
	if err != nil {
		r.log.Error("past orders query error", zap.String("entry_id", entryID), zap.Error(err))
		return nil, fmt.Errorf("failed to query past orders: %w", err)
	}
	defer rows.Close()

	orders := []models.PastOrder{}
	for rows.Next() {
		var (
			o           models.PastOrder
			completedAt *time.Time
		)
		if err := rows.Scan(&o.OrderUUID, &o.StoreUUID, &o.RestaurantName, &o.Total, &o.DeliveryFee, &o.IsCancelled, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan past order: %w", err)
		}
		if completedAt != nil {
			o.CompletedAt = completedAt.UTC()
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read past orders: %w", err)
	}
	return orders, nil
}

// SavePastOrders upserts orders for an account in one batch.
func (r *Repository) SavePastOrders(ctx context.Context, entryID string, orders []models.PastOrder) error {
	batch := &pgx.Batch{}
	for _, o := range orders {
		var completedAt *time.Time
		if !o.CompletedAt.IsZero() {
			t := o.CompletedAt
			completedAt = &t
		}
		batch.Queue(`
			INSERT INTO past_orders (entry_id, order_uuid, store_uuid, restaurant_name, total, delivery_fee, is_cancelled, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (entry_id, order_uuid) DO UPDATE SET
				store_uuid = EXCLUDED.store_uuid,
				restaurant_name = EXCLUDED.restaurant_name,
				total = EXCLUDED.total,
				delivery_fee = EXCLUDED.delivery_fee,
				is_cancelled = EXCLUDED.is_cancelled,
				completed_at = EXCLUDED.completed_at`,
			entryID, o.OrderUUID, o.StoreUUID, o.RestaurantName, o.Total, o.DeliveryFee, o.IsCancelled, completedAt)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save past orders: %w", err)
	}
	return nil
}

// DeleteAccount removes every past order of an account.
func (r *Repository) DeleteAccount(ctx context.Context, entryID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM past_orders WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to delete past orders: %w", err)
	}
	return nil
}
