package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// withTenant acquires one pooled connection, establishes the tenant context
// on it, runs fn, and clears the context again before the connection goes
// back to the pool. Row-level security policies key on app.current_tenant,
// so the setting must live on the same session as the query it guards.
func withTenant(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID, fn func(conn *pgxpool.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT set_config('app.current_tenant', $1, false)", tenantID.String()); err != nil {
		return fmt.Errorf("set tenant context: %w", err)
	}
	defer func() {
		// Must run even when ctx is already cancelled; a reused connection
		// may never carry another tenant's context.
		_, _ = conn.Exec(context.WithoutCancel(ctx), "RESET app.current_tenant")
	}()

	return fn(conn)
}
