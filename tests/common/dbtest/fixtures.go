//go:build unit || e2e

package dbtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by the pool and by a transaction.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func CreateTestProduct(t *testing.T, db DBLike, tenantID, productID string, quantity int, tracked bool) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO products (tenant_id, id, name, quantity, tracking_enabled) VALUES ($1, $2, $3, $4, $5)`,
		tenantID, productID, "Product "+productID, quantity, tracked)
	require.NoError(t, err)
}

func ProductQuantity(t *testing.T, db DBLike, tenantID, productID string) int {
	t.Helper()

	var qty int
	err := db.QueryRow(context.Background(),
		`SELECT quantity FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, productID).Scan(&qty)
	require.NoError(t, err)
	return qty
}

func CreateTestCustomer(t *testing.T, db DBLike, tenantID, name, email string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO customers (tenant_id, id, name, email) VALUES ($1, $2, $3, $4)`,
		tenantID, id, name, email)
	require.NoError(t, err)
	return id
}

type CustomerRow struct {
	Name            string
	Phone           string
	Email           string
	DeliveryAddress map[string]any
}

func GetCustomer(t *testing.T, db DBLike, tenantID string, id uuid.UUID) CustomerRow {
	t.Helper()

	var (
		row  CustomerRow
		addr []byte
	)
	err := db.QueryRow(context.Background(),
		`SELECT name, phone, email, delivery_address FROM customers WHERE tenant_id = $1 AND id = $2`,
		tenantID, id).Scan(&row.Name, &row.Phone, &row.Email, &addr)
	require.NoError(t, err)
	if len(addr) > 0 {
		require.NoError(t, json.Unmarshal(addr, &row.DeliveryAddress))
	}
	return row
}

func CountOrders(t *testing.T, db DBLike, tenantID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		`SELECT count(*) FROM orders WHERE tenant_id = $1`, tenantID).Scan(&n)
	require.NoError(t, err)
	return n
}

func SequenceValue(t *testing.T, db DBLike, tenantID, name string) int64 {
	t.Helper()

	var seq int64
	err := db.QueryRow(context.Background(),
		`SELECT COALESCE((SELECT seq FROM sequence_counters WHERE tenant_id = $1 AND name = $2), 0)`,
		tenantID, name).Scan(&seq)
	require.NoError(t, err)
	return seq
}

// the schema has no reference data; kept as the hook ResetDB calls after truncation
func SeedReferenceData(pool *pgxpool.Pool) error {
	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
