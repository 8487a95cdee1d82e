package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/theplant/luhn"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
)

const (
	DefaultCurrency = "USD"

	minICCIDLen = 18
	maxICCIDLen = 20
)

var (
	hundred     = decimal.NewFromInt(100)
	defaultRate = decimal.NewFromInt(1)
)

// CreateOrGetIntent returns the active intent for (accountID, packageID) or creates one.
// An empty status means initiated.
func (s *Service) CreateOrGetIntent(ctx context.Context, accountID int64, packageID string, params domain.IntentParams, status domain.IntentStatus) (domain.OrderIntent, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return domain.OrderIntent{}, &domain.ValidationError{Field: "package_id", Reason: "is required"}
	}
	if status == "" {
		status = domain.StatusInitiated
	}
	if !status.Active() {
		return domain.OrderIntent{}, &domain.ValidationError{Field: "status", Reason: "a new intent must be initiated or started"}
	}

	existing, err := s.store.ActiveIntent(ctx, accountID, packageID)
	switch {
	case err == nil:
		s.logger.Debug("Active intent reused",
			zap.Int64("intent_id", existing.ID),
			zap.Int64("account_id", accountID),
		)
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.OrderIntent{}, persistence("active intent lookup", err)
	}

	pkg, err := s.store.GetPackage(ctx, packageID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.OrderIntent{}, &domain.ValidationError{Field: "package_id", Reason: "package not found"}
	}
	if err != nil {
		return domain.OrderIntent{}, persistence("package lookup", err)
	}

	in := domain.OrderIntent{
		AccountID: accountID,
		PackageID: packageID,
		Type:      pkg.Type,
		Status:    status,
		CreatedBy: accountID,
	}
	switch pkg.Type {
	case domain.IntentSim:
		active, err := s.store.HasActiveSubscription(ctx, accountID, packageID)
		if err != nil {
			return domain.OrderIntent{}, persistence("subscription lookup", err)
		}
		if active {
			return domain.OrderIntent{}, &domain.DuplicateOrderError{AccountID: accountID, PackageID: packageID}
		}
	case domain.IntentTopup:
		if err := ValidateICCID(params.ICCID); err != nil {
			return domain.OrderIntent{}, err
		}
		in.ICCID = strings.TrimSpace(params.ICCID)
	default:
		return domain.OrderIntent{}, &domain.ValidationError{Field: "package_id", Reason: "package has unknown type " + string(pkg.Type)}
	}

	created, err := s.store.CreateIntent(ctx, in)
	if errors.Is(err, domain.ErrActiveIntentExists) {
		// lost the race to a concurrent create
		return created, nil
	}
	if err != nil {
		return domain.OrderIntent{}, persistence("intent insert", err)
	}

	s.logger.Info("Order intent created",
		zap.Int64("intent_id", created.ID),
		zap.Int64("account_id", accountID),
		zap.String("package_id", packageID),
		zap.String("type", string(created.Type)),
	)
	return created, nil
}

// ValidateICCID checks length, digits and the Luhn check digit.
func ValidateICCID(iccid string) error {
	iccid = strings.TrimSpace(iccid)
	if iccid == "" {
		return &domain.ValidationError{Field: "iccid", Reason: "is required for a top-up"}
	}
	if len(iccid) < minICCIDLen || len(iccid) > maxICCIDLen {
		return &domain.ValidationError{Field: "iccid", Reason: "must be 18 to 20 digits"}
	}
	for _, r := range iccid {
		if r < '0' || r > '9' {
			return &domain.ValidationError{Field: "iccid", Reason: "must contain digits only"}
		}
	}
	body, err := strconv.Atoi(iccid[:len(iccid)-1])
	if err != nil {
		return &domain.ValidationError{Field: "iccid", Reason: "is out of range"}
	}
	if luhn.CalculateLuhn(body) != int(iccid[len(iccid)-1]-'0') {
		return &domain.ValidationError{Field: "iccid", Reason: "check digit mismatch"}
	}
	return nil
}

// Start records that payment collection began: initiated -> started.
func (s *Service) Start(ctx context.Context, intentID, accountID int64) (domain.OrderIntent, error) {
	in, err := s.intentFor(ctx, intentID, accountID)
	if err != nil {
		return domain.OrderIntent{}, err
	}
	if err := s.Transition(ctx, in, domain.StatusStarted); err != nil {
		return domain.OrderIntent{}, err
	}
	in.Status = domain.StatusStarted
	return in, nil
}

// Transition is the only writer of intent status.
func (s *Service) Transition(ctx context.Context, in domain.OrderIntent, to domain.IntentStatus) error {
	if !domain.CanTransition(in.Status, to) {
		return &domain.StateError{IntentID: in.ID, Current: in.Status, Want: to}
	}
	err := s.store.UpdateStatus(ctx, in.ID, in.Status, to)
	if errors.Is(err, domain.ErrStaleStatus) {
		current := in.Status
		if fresh, gerr := s.store.GetIntent(ctx, in.ID); gerr == nil {
			current = fresh.Status
		}
		return &domain.StateError{IntentID: in.ID, Current: current, Want: to}
	}
	if err != nil {
		return persistence("intent status update", err)
	}
	s.logger.Debug("Intent transitioned",
		zap.Int64("intent_id", in.ID),
		zap.String("from", string(in.Status)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *Service) intentFor(ctx context.Context, intentID, accountID int64) (domain.OrderIntent, error) {
	in, err := s.store.GetIntent(ctx, intentID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && in.AccountID != accountID) {
		return domain.OrderIntent{}, &domain.ValidationError{Reason: "order intent not found"}
	}
	if err != nil {
		return domain.OrderIntent{}, persistence("intent lookup", err)
	}
	return in, nil
}

// ResolveIntent loads an intent in the expected status and prices it for the account.
// The first computed price is persisted and reused afterwards.
func (s *Service) ResolveIntent(ctx context.Context, intentID int64, expected domain.IntentStatus, accountID int64) (domain.ResolvedIntent, error) {
	in, err := s.intentFor(ctx, intentID, accountID)
	if err != nil {
		return domain.ResolvedIntent{}, err
	}
	if in.Status != expected {
		return domain.ResolvedIntent{}, &domain.StateError{IntentID: in.ID, Current: in.Status, Want: expected}
	}

	pkg, err := s.store.GetPackage(ctx, in.PackageID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ResolvedIntent{}, &domain.ValidationError{Field: "package_id", Reason: "package not found"}
	}
	if err != nil {
		return domain.ResolvedIntent{}, persistence("package lookup", err)
	}

	if in.Snapshot != nil {
		return domain.ResolvedIntent{Intent: in, Package: pkg, Price: *in.Snapshot}, nil
	}

	currency, rate, err := s.accountCurrency(ctx, accountID)
	if err != nil {
		return domain.ResolvedIntent{}, err
	}
	snap, err := s.store.SnapshotPrice(ctx, in.ID, domain.PriceSnapshot{
		Price:        Price(pkg.NetPrice, pkg.Markup, rate),
		Currency:     currency,
		CurrencyRate: rate,
	})
	if err != nil {
		return domain.ResolvedIntent{}, persistence("price snapshot", err)
	}
	in.Snapshot = &snap

	s.logger.Info("Order intent priced",
		zap.Int64("intent_id", in.ID),
		zap.String("price", snap.Price.StringFixed(2)),
		zap.String("currency", snap.Currency),
	)
	return domain.ResolvedIntent{Intent: in, Package: pkg, Price: snap}, nil
}

// Price is net * (1 + markup/100) * rate rounded to cents.
func Price(net, markupPercent, rate decimal.Decimal) decimal.Decimal {
	return net.Mul(defaultRate.Add(markupPercent.Div(hundred))).Mul(rate).Round(2)
}

func (s *Service) accountCurrency(ctx context.Context, accountID int64) (string, decimal.Decimal, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", decimal.Zero, &domain.ValidationError{Field: "account_id", Reason: "account not found"}
	}
	if err != nil {
		return "", decimal.Zero, persistence("account lookup", err)
	}
	if acc.CurrencyID == nil {
		return DefaultCurrency, defaultRate, nil
	}
	cur, err := s.store.GetCurrency(ctx, *acc.CurrencyID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !cur.Rate.IsPositive()) {
		s.logger.Warn("Account currency unavailable, using default",
			zap.Int64("account_id", accountID),
			zap.Int64("currency_id", *acc.CurrencyID),
		)
		return DefaultCurrency, defaultRate, nil
	}
	if err != nil {
		return "", decimal.Zero, persistence("currency lookup", err)
	}
	return cur.Code, cur.Rate, nil
}
