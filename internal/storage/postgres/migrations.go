package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors the SQLite schema and adds row-level security. The policies
// encode the same rule as the authorization guard: the global and system
// scopes see every row, a tenant scope sees only its own. Every query in this
// package sets app.scope and app.wholesaler_id for its transaction.
const schema = `
CREATE TABLE IF NOT EXISTS wholesalers (
    id text PRIMARY KEY,
    owner_user_id text NOT NULL UNIQUE,
    name text NOT NULL,
    created_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    seq bigserial UNIQUE,
    id text PRIMARY KEY,
    order_id text NOT NULL,
    wholesaler_id text NOT NULL REFERENCES wholesalers(id),
    order_amount bigint NOT NULL CHECK (order_amount >= 0),
    platform_fee_rate double precision NOT NULL CHECK (platform_fee_rate >= 0 AND platform_fee_rate <= 1),
    platform_fee bigint NOT NULL,
    wholesaler_amount bigint NOT NULL,
    status text NOT NULL CHECK (status IN ('pending', 'completed')),
    paid_at timestamptz NOT NULL,
    scheduled_payout_at timestamptz NOT NULL,
    completed_at timestamptz,
    created_at timestamptz NOT NULL,
    updated_at timestamptz NOT NULL,
    CONSTRAINT settlements_order_id_key UNIQUE (order_id),
    CHECK (platform_fee + wholesaler_amount = order_amount)
);

CREATE INDEX IF NOT EXISTS idx_settlements_wholesaler_id ON settlements(wholesaler_id);
CREATE INDEX IF NOT EXISTS idx_settlements_scheduled_payout_at ON settlements(scheduled_payout_at);
CREATE INDEX IF NOT EXISTS idx_settlements_created_at ON settlements(created_at);

ALTER TABLE settlements ENABLE ROW LEVEL SECURITY;
ALTER TABLE settlements FORCE ROW LEVEL SECURITY;

DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_policies WHERE tablename = 'settlements' AND policyname = 'settlements_scope'
    ) THEN
        CREATE POLICY settlements_scope ON settlements
            USING (
                current_setting('app.scope', true) IN ('global', 'system')
                OR wholesaler_id = current_setting('app.wholesaler_id', true)
            )
            WITH CHECK (
                current_setting('app.scope', true) IN ('global', 'system')
                OR wholesaler_id = current_setting('app.wholesaler_id', true)
            );
    END IF;
END
$$;
`

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
