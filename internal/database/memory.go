package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TemirB/esim-gateway/internal/domain"
)

// Memory is a process-local store with the same semantics as Repo.
// A single mutex serializes every write.
type Memory struct {
	mu sync.Mutex

	now func() time.Time

	nextIntent    int64
	nextLedger    int64
	intents       map[int64]domain.OrderIntent
	accounts      map[int64]domain.Account
	currencies    map[int64]domain.Currency
	packages      map[string]domain.Package
	subscriptions []domain.Subscription
	topups        []domain.TopupLog
	ledger        []domain.LedgerEntry
	invoices      []domain.Invoice
}

func NewMemory() *Memory {
	return &Memory{
		now:        time.Now,
		intents:    make(map[int64]domain.OrderIntent),
		accounts:   make(map[int64]domain.Account),
		currencies: make(map[int64]domain.Currency),
		packages:   make(map[string]domain.Package),
	}
}

func (m *Memory) PutAccount(a domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *Memory) PutCurrency(c domain.Currency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[c.ID] = c
}

func (m *Memory) PutPackage(p domain.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.PackageID] = p
}

func (m *Memory) PutSubscription(s domain.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, s)
}

func (m *Memory) Ledger() []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LedgerEntry(nil), m.ledger...)
}

func (m *Memory) Invoices() []domain.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Invoice(nil), m.invoices...)
}

func (m *Memory) Subscriptions() []domain.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Subscription(nil), m.subscriptions...)
}

func (m *Memory) TopupLogs() []domain.TopupLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TopupLog(nil), m.topups...)
}

func (m *Memory) activeLocked(accountID int64, packageID string) (domain.OrderIntent, bool) {
	for _, in := range m.intents {
		if in.AccountID == accountID && in.PackageID == packageID && in.Status.Active() {
			return in, true
		}
	}
	return domain.OrderIntent{}, false
}

func (m *Memory) CreateIntent(_ context.Context, in domain.OrderIntent) (domain.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.activeLocked(in.AccountID, in.PackageID); ok {
		return existing, domain.ErrActiveIntentExists
	}
	m.nextIntent++
	in.ID = m.nextIntent
	in.Snapshot = nil
	in.CreatedAt = m.now().UTC()
	in.UpdatedAt = in.CreatedAt
	m.intents[in.ID] = in
	return in, nil
}

func (m *Memory) ActiveIntent(_ context.Context, accountID int64, packageID string) (domain.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in, ok := m.activeLocked(accountID, packageID); ok {
		return in, nil
	}
	return domain.OrderIntent{}, domain.ErrNotFound
}

func (m *Memory) GetIntent(_ context.Context, id int64) (domain.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return domain.OrderIntent{}, domain.ErrNotFound
	}
	return in, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id int64, from, to domain.IntentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	if in.Status != from {
		return domain.ErrStaleStatus
	}
	in.Status = to
	in.UpdatedAt = m.now().UTC()
	m.intents[id] = in
	return nil
}

func (m *Memory) SnapshotPrice(_ context.Context, id int64, snap domain.PriceSnapshot) (domain.PriceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return domain.PriceSnapshot{}, domain.ErrNotFound
	}
	if in.Snapshot == nil {
		in.Snapshot = &snap
		in.UpdatedAt = m.now().UTC()
		m.intents[id] = in
	}
	return *in.Snapshot, nil
}

func (m *Memory) ClaimIntent(_ context.Context, id int64, paymentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	if in.Status != domain.StatusStarted || in.PaymentRef != "" {
		return domain.ErrStaleStatus
	}
	in.PaymentRef = paymentRef
	in.UpdatedAt = m.now().UTC()
	m.intents[id] = in
	return nil
}

func (m *Memory) CompleteIntent(_ context.Context, c domain.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[c.IntentID]
	if !ok {
		return domain.ErrNotFound
	}
	if in.Status != domain.StatusStarted {
		return domain.ErrStaleStatus
	}
	in.Status = domain.StatusCompleted
	if c.ICCID != "" {
		in.ICCID = c.ICCID
	}
	in.UpdatedAt = m.now().UTC()
	m.intents[in.ID] = in

	if c.Subscription != nil {
		m.subscriptions = append(m.subscriptions, *c.Subscription)
	}
	if c.Topup != nil {
		m.topups = append(m.topups, *c.Topup)
	}
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id int64) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *Memory) GetCurrency(_ context.Context, id int64) (domain.Currency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.currencies[id]
	if !ok {
		return domain.Currency{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *Memory) HasActiveSubscription(_ context.Context, accountID int64, packageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.AccountID == accountID && s.PackageID == packageID && s.Status == domain.SubscriptionActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) GetPackage(_ context.Context, packageID string) (domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[packageID]
	if !ok {
		return domain.Package{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *Memory) UpsertPackages(_ context.Context, pkgs []domain.Package) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pkgs {
		if old, ok := m.packages[p.PackageID]; ok {
			p.Markup = old.Markup
		}
		m.packages[p.PackageID] = p
	}
	return len(pkgs), nil
}

func (m *Memory) RecordCharge(_ context.Context, e domain.LedgerEntry) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[e.AccountID]
	if !ok {
		return domain.Invoice{}, domain.ErrNotFound
	}
	if e.TransactionRef == "" {
		e.TransactionRef = uuid.NewString()
	}

	now := m.now().UTC()
	m.nextLedger++
	e.ID = m.nextLedger
	e.CreatedAt = now
	m.ledger = append(m.ledger, e)

	last := ""
	if n := len(m.invoices); n > 0 {
		last = m.invoices[n-1].InvoiceID
	}
	inv := domain.Invoice{
		ID:            int64(len(m.invoices) + 1),
		InvoiceID:     NextInvoiceID(last),
		AccountID:     e.AccountID,
		ResellerID:    e.ResellerID,
		Debit:         e.Debit,
		Description:   e.Description,
		ItemType:      e.ItemType,
		BeforeBalance: acc.Balance,
		AfterBalance:  acc.Balance.Sub(e.Debit),
		CreatedAt:     now,
	}
	m.invoices = append(m.invoices, inv)
	return inv, nil
}
