package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent. The partial unique index is what keeps at most one
// active intent per (account_id, package_id) under concurrent creates.
const schema = `
CREATE TABLE IF NOT EXISTS currencies (
	id            BIGSERIAL PRIMARY KEY,
	currency      TEXT NOT NULL,
	currency_rate NUMERIC(18,6) NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS accounts (
	id          BIGSERIAL PRIMARY KEY,
	reseller_id BIGINT NOT NULL DEFAULT 0,
	balance     NUMERIC(18,2) NOT NULL DEFAULT 0,
	currency_id BIGINT REFERENCES currencies(id)
);

CREATE TABLE IF NOT EXISTS packages (
	package_id TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	slug       TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	net_price  NUMERIC(18,2) NOT NULL,
	markup     NUMERIC(8,2) NOT NULL DEFAULT 25,
	day        INT NOT NULL DEFAULT 0,
	amount     INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_intents (
	id            BIGSERIAL PRIMARY KEY,
	account_id    BIGINT NOT NULL,
	package_id    TEXT NOT NULL,
	iccid         TEXT,
	type          TEXT NOT NULL,
	status        TEXT NOT NULL,
	price         NUMERIC(18,2),
	currency      TEXT,
	currency_rate NUMERIC(18,6),
	payment_ref   TEXT,
	created_by    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE order_intents ADD COLUMN IF NOT EXISTS payment_ref TEXT;

CREATE UNIQUE INDEX IF NOT EXISTS order_intents_one_active
	ON order_intents (account_id, package_id)
	WHERE status IN ('initiated', 'started');

CREATE TABLE IF NOT EXISTS subscriptions (
	id         BIGSERIAL PRIMARY KEY,
	order_id   BIGINT NOT NULL,
	account_id BIGINT NOT NULL,
	iccid      TEXT NOT NULL,
	package_id TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS subscriptions_account_package
	ON subscriptions (account_id, package_id, status);

CREATE TABLE IF NOT EXISTS topup_logs (
	id         BIGSERIAL PRIMARY KEY,
	account_id BIGINT NOT NULL,
	order_id   BIGINT NOT NULL,
	iccid      TEXT NOT NULL,
	intent_id  BIGINT NOT NULL REFERENCES order_intents(id),
	code       TEXT NOT NULL DEFAULT '',
	package_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transaction_history (
	id              BIGSERIAL PRIMARY KEY,
	account_id      BIGINT NOT NULL,
	reseller_id     BIGINT NOT NULL DEFAULT 0,
	debit           NUMERIC(18,2) NOT NULL,
	description     TEXT NOT NULL,
	item_type       TEXT NOT NULL,
	transaction_ref TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoices (
	id             BIGSERIAL PRIMARY KEY,
	invoice_id     TEXT NOT NULL UNIQUE,
	account_id     BIGINT NOT NULL,
	reseller_id    BIGINT NOT NULL DEFAULT 0,
	debit          NUMERIC(18,2) NOT NULL,
	description    TEXT NOT NULL,
	item_type      TEXT NOT NULL,
	before_balance NUMERIC(18,2) NOT NULL,
	after_balance  NUMERIC(18,2) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the gateway tables when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
