package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/TemirB/esim-gateway/internal/domain"
)

// invoiceLock serializes INV-n numbering across concurrent charges.
const invoiceLock = 0x65_73_69_6d

const intentColumns = `id, account_id, package_id, COALESCE(iccid, ''), type, status,
	price, COALESCE(currency, ''), currency_rate, COALESCE(payment_ref, ''), created_by, created_at, updated_at`

// Querier is the part of *pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repo struct {
	pool Querier
}

func New(pool Querier) *Repo { return &Repo{pool: pool} }

func scanIntent(row pgx.Row) (domain.OrderIntent, error) {
	var (
		in       domain.OrderIntent
		price    decimal.NullDecimal
		rate     decimal.NullDecimal
		currency string
	)
	err := row.Scan(&in.ID, &in.AccountID, &in.PackageID, &in.ICCID, &in.Type, &in.Status,
		&price, &currency, &rate, &in.PaymentRef, &in.CreatedBy, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return in, domain.ErrNotFound
	}
	if err != nil {
		return in, err
	}
	if price.Valid {
		in.Snapshot = &domain.PriceSnapshot{Price: price.Decimal, Currency: currency, CurrencyRate: rate.Decimal}
	}
	return in, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateIntent retries the insert once when the conflicting intent left the
// active states between the insert and the lookup.
func (r *Repo) CreateIntent(ctx context.Context, in domain.OrderIntent) (domain.OrderIntent, error) {
	for attempt := 0; ; attempt++ {
		created, err := r.insertIntent(ctx, in)
		if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}
		existing, err := r.ActiveIntent(ctx, in.AccountID, in.PackageID)
		if errors.Is(err, domain.ErrNotFound) && attempt == 0 {
			continue
		}
		if err != nil {
			return domain.OrderIntent{}, err
		}
		return existing, domain.ErrActiveIntentExists
	}
}

func (r *Repo) insertIntent(ctx context.Context, in domain.OrderIntent) (domain.OrderIntent, error) {
	return scanIntent(r.pool.QueryRow(ctx, `
		INSERT INTO order_intents (account_id, package_id, iccid, type, status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (account_id, package_id) WHERE status IN ('initiated', 'started') DO NOTHING
		RETURNING `+intentColumns,
		in.AccountID, in.PackageID, nullable(in.ICCID), in.Type, in.Status, in.CreatedBy,
	))
}

func (r *Repo) ActiveIntent(ctx context.Context, accountID int64, packageID string) (domain.OrderIntent, error) {
	return scanIntent(r.pool.QueryRow(ctx, `
		SELECT `+intentColumns+` FROM order_intents
		WHERE account_id=$1 AND package_id=$2 AND status IN ('initiated', 'started')
	`, accountID, packageID))
}

func (r *Repo) GetIntent(ctx context.Context, id int64) (domain.OrderIntent, error) {
	return scanIntent(r.pool.QueryRow(ctx, `SELECT `+intentColumns+` FROM order_intents WHERE id=$1`, id))
}

func (r *Repo) UpdateStatus(ctx context.Context, id int64, from, to domain.IntentStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE order_intents SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2
	`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *Repo) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_intents WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrStaleStatus
}

func (r *Repo) SnapshotPrice(ctx context.Context, id int64, snap domain.PriceSnapshot) (domain.PriceSnapshot, error) {
	if _, err := r.pool.Exec(ctx, `
		UPDATE order_intents SET price=$2, currency=$3, currency_rate=$4, updated_at=now()
		WHERE id=$1 AND price IS NULL
	`, id, snap.Price, snap.Currency, snap.CurrencyRate); err != nil {
		return domain.PriceSnapshot{}, err
	}
	in, err := r.GetIntent(ctx, id)
	if err != nil {
		return domain.PriceSnapshot{}, err
	}
	if in.Snapshot == nil {
		return domain.PriceSnapshot{}, fmt.Errorf("intent %d: price not stored", id)
	}
	return *in.Snapshot, nil
}

func (r *Repo) ClaimIntent(ctx context.Context, id int64, paymentRef string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE order_intents SET payment_ref=$2, updated_at=now()
		WHERE id=$1 AND status=$3 AND payment_ref IS NULL
	`, id, paymentRef, domain.StatusStarted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *Repo) CompleteIntent(ctx context.Context, c domain.Completion) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE order_intents
		SET status=$2, iccid=COALESCE($3, iccid), updated_at=now()
		WHERE id=$1 AND status=$4
	`, c.IntentID, domain.StatusCompleted, nullable(c.ICCID), domain.StatusStarted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, c.IntentID)
	}

	if s := c.Subscription; s != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO subscriptions (order_id, account_id, iccid, package_id, status)
			VALUES ($1,$2,$3,$4,$5)
		`, s.OrderID, s.AccountID, s.ICCID, s.PackageID, s.Status); err != nil {
			return err
		}
	}
	if t := c.Topup; t != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO topup_logs (account_id, order_id, iccid, intent_id, code, package_id)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, t.AccountID, t.OrderID, t.ICCID, t.IntentID, t.Code, t.PackageID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, `SELECT id, reseller_id, balance, currency_id FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.ResellerID, &a.Balance, &a.CurrencyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, domain.ErrNotFound
	}
	return a, err
}

func (r *Repo) GetCurrency(ctx context.Context, id int64) (domain.Currency, error) {
	var c domain.Currency
	err := r.pool.QueryRow(ctx, `SELECT id, currency, currency_rate FROM currencies WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, domain.ErrNotFound
	}
	return c, err
}

func (r *Repo) HasActiveSubscription(ctx context.Context, accountID int64, packageID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE account_id=$1 AND package_id=$2 AND status=$3
		)
	`, accountID, packageID, domain.SubscriptionActive).Scan(&exists)
	return exists, err
}

func (r *Repo) GetPackage(ctx context.Context, packageID string) (domain.Package, error) {
	var p domain.Package
	err := r.pool.QueryRow(ctx, `
		SELECT package_id, type, slug, title, net_price, markup, day, amount
		FROM packages WHERE package_id=$1
	`, packageID).Scan(&p.PackageID, &p.Type, &p.Slug, &p.Title, &p.NetPrice, &p.Markup, &p.Day, &p.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, err
}

// UpsertPackages refreshes catalog rows in one batch; markup is only set on insert.
func (r *Repo) UpsertPackages(ctx context.Context, pkgs []domain.Package) (int, error) {
	if len(pkgs) == 0 {
		return 0, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range pkgs {
		batch.Queue(`
			INSERT INTO packages (package_id, type, slug, title, net_price, markup, day, amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (package_id) DO UPDATE SET
			  type=EXCLUDED.type, slug=EXCLUDED.slug, title=EXCLUDED.title,
			  net_price=EXCLUDED.net_price, day=EXCLUDED.day, amount=EXCLUDED.amount,
			  updated_at=now()
		`, p.PackageID, p.Type, p.Slug, p.Title, p.NetPrice, p.Markup, p.Day, p.Amount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(pkgs), nil
}

// RecordCharge writes the ledger debit and the matching invoice in one transaction.
func (r *Repo) RecordCharge(ctx context.Context, e domain.LedgerEntry) (domain.Invoice, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	defer tx.Rollback(ctx)

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`, e.AccountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Invoice{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Invoice{}, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transaction_history (account_id, reseller_id, debit, description, item_type, transaction_ref)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.AccountID, e.ResellerID, e.Debit, e.Description, e.ItemType, e.TransactionRef); err != nil {
		return domain.Invoice{}, err
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, invoiceLock); err != nil {
		return domain.Invoice{}, err
	}
	var last string
	err = tx.QueryRow(ctx, `SELECT invoice_id FROM invoices ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Invoice{}, err
	}

	inv := domain.Invoice{
		InvoiceID:     NextInvoiceID(last),
		AccountID:     e.AccountID,
		ResellerID:    e.ResellerID,
		Debit:         e.Debit,
		Description:   e.Description,
		ItemType:      e.ItemType,
		BeforeBalance: balance,
		AfterBalance:  balance.Sub(e.Debit),
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO invoices (invoice_id, account_id, reseller_id, debit, description, item_type, before_balance, after_balance)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`, inv.InvoiceID, inv.AccountID, inv.ResellerID, inv.Debit, inv.Description, inv.ItemType,
		inv.BeforeBalance, inv.AfterBalance,
	).Scan(&inv.ID, &inv.CreatedAt); err != nil {
		return domain.Invoice{}, err
	}
	return inv, tx.Commit(ctx)
}

// NextInvoiceID returns INV-(n+1) for the last issued INV-n; an empty or
// malformed last id starts the sequence at INV-1.
func NextInvoiceID(last string) string {
	n, err := strconv.ParseInt(strings.TrimPrefix(last, "INV-"), 10, 64)
	if err != nil || n < 0 {
		n = 0
	}
	return "INV-" + strconv.FormatInt(n+1, 10)
}
