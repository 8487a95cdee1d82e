package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type IntentRepository interface {
	// CreateIntent inserts a new intent unless an active one exists for the
	// same account and package; in that case the existing intent is returned
	// together with ErrActiveIntentExists.
	CreateIntent(ctx context.Context, in OrderIntent) (OrderIntent, error)
	ActiveIntent(ctx context.Context, accountID int64, packageID string) (OrderIntent, error)
	GetIntent(ctx context.Context, id int64) (OrderIntent, error)
	// UpdateStatus is a compare-and-set; ErrStaleStatus when the row is no longer in from.
	UpdateStatus(ctx context.Context, id int64, from, to IntentStatus) error
	// SnapshotPrice writes the price only if none has been stored yet and
	// returns the snapshot that is persisted afterwards.
	SnapshotPrice(ctx context.Context, id int64, snap PriceSnapshot) (PriceSnapshot, error)
	// ClaimIntent binds a started, unclaimed intent to one payment before the
	// partner is called. ErrStaleStatus when it is not started or already claimed.
	ClaimIntent(ctx context.Context, id int64, paymentRef string) error
	// CompleteIntent moves started -> completed, attaches the iccid and writes
	// the subscription or top-up log in one unit.
	CompleteIntent(ctx context.Context, c Completion) error
}

type AccountRepository interface {
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetCurrency(ctx context.Context, id int64) (Currency, error)
	HasActiveSubscription(ctx context.Context, accountID int64, packageID string) (bool, error)
}

type CatalogRepository interface {
	GetPackage(ctx context.Context, packageID string) (Package, error)
	// UpsertPackages refreshes partner fields; an existing markup is kept.
	UpsertPackages(ctx context.Context, pkgs []Package) (int, error)
}

type LedgerRepository interface {
	// RecordCharge writes the ledger debit and its invoice together.
	RecordCharge(ctx context.Context, entry LedgerEntry) (Invoice, error)
}

type Store interface {
	IntentRepository
	AccountRepository
	CatalogRepository
	LedgerRepository
}

// Charge is a ledger debit before the store assigns ids and balances.
func Charge(account Account, amount decimal.Decimal, itemType IntentType, ref, description string) LedgerEntry {
	return LedgerEntry{
		AccountID:      account.ID,
		ResellerID:     account.ResellerID,
		Debit:          amount,
		Description:    description,
		ItemType:       itemType,
		TransactionRef: ref,
	}
}
