package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// wholesalers must be created BEFORE settlements due to the foreign key constraint.
// Timestamps are unix milliseconds (UTC).
const schema = `
CREATE TABLE IF NOT EXISTS wholesalers (
    id TEXT PRIMARY KEY,
    owner_user_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    order_id TEXT NOT NULL,
    wholesaler_id TEXT NOT NULL,
    order_amount INTEGER NOT NULL CHECK (order_amount >= 0),
    platform_fee_rate REAL NOT NULL CHECK (platform_fee_rate >= 0 AND platform_fee_rate <= 1),
    platform_fee INTEGER NOT NULL,
    wholesaler_amount INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
    paid_at INTEGER NOT NULL,
    scheduled_payout_at INTEGER NOT NULL,
    completed_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    CHECK (platform_fee + wholesaler_amount = order_amount),
    FOREIGN KEY (wholesaler_id) REFERENCES wholesalers(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_settlements_order_id ON settlements(order_id);
CREATE INDEX IF NOT EXISTS idx_settlements_wholesaler_id ON settlements(wholesaler_id);
CREATE INDEX IF NOT EXISTS idx_settlements_scheduled_payout_at ON settlements(scheduled_payout_at);
CREATE INDEX IF NOT EXISTS idx_settlements_created_at ON settlements(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
