package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/partner"
)

const (
	CautionBookkeeping = "package created. An error occurred while saving records in the database"

	descriptionSim   = "Esim purchase"
	descriptionTopup = "Esim top up"
)

func (s *Service) Fulfill(ctx context.Context, payment domain.Payment, resolved domain.ResolvedIntent) (*domain.Order, error) {
	order, _, err := s.FulfillWithStats(ctx, payment, resolved)
	return order, err
}

// FulfillWithStats buys the intent's package from the partner and books it locally.
// Once the partner has confirmed the purchase no error is returned: a bookkeeping
// failure is logged and reported through Order.Caution.
func (s *Service) FulfillWithStats(ctx context.Context, payment domain.Payment, resolved domain.ResolvedIntent) (*domain.Order, FulfillStats, error) {
	var st FulfillStats
	in := resolved.Intent
	t0 := time.Now()

	if in.Status != domain.StatusStarted {
		return nil, st, &domain.StateError{IntentID: in.ID, Current: in.Status, Want: domain.StatusStarted}
	}
	if payment.AccountID != in.AccountID {
		return nil, st, &domain.ValidationError{Field: "account_id", Reason: "payment does not belong to the intent account"}
	}
	if err := s.claim(ctx, in, payment.TransactionToken); err != nil {
		return nil, st, err
	}

	tPartner := time.Now()
	order, iccid, err := s.purchase(ctx, in)
	st.PartnerMs = convertToMs(tPartner)
	if err != nil {
		st.Outcome = OutcomeFailed
		s.fail(ctx, in, err)
		s.metrics.ObserveFulfill(string(in.Type), string(st.Outcome), convertToMs(t0))
		return nil, st, err
	}
	order.Price = resolved.Price.Price
	order.Currency = resolved.Price.Currency

	tBook := time.Now()
	if err := s.bookkeep(ctx, payment, in, order, iccid); err != nil {
		order.Caution = CautionBookkeeping
		s.logger.Error("Bookkeeping failed after partner purchase",
			zap.Int64("intent_id", in.ID),
			zap.Int64("order_id", order.ID),
			zap.String("iccid", iccid),
			zap.String("transaction_token", payment.TransactionToken),
			zap.Error(err),
		)
		st.Outcome = OutcomeCaution
	} else {
		st.Outcome = OutcomeCompleted
	}
	st.BookkeepingMs = convertToMs(tBook)

	s.publish(ctx, domain.OrderEvent{
		Type:      domain.EventOrderCompleted,
		IntentID:  in.ID,
		AccountID: in.AccountID,
		PackageID: in.PackageID,
		Kind:      in.Type,
		OrderID:   order.ID,
		ICCID:     iccid,
		Caution:   order.Caution,
	})
	s.metrics.ObserveFulfill(string(in.Type), string(st.Outcome), convertToMs(t0))
	s.logger.Info("Order fulfilled",
		zap.Int64("intent_id", in.ID),
		zap.Int64("order_id", order.ID),
		zap.String("outcome", string(st.Outcome)),
		zap.Float64("partner_ms", st.PartnerMs),
		zap.Float64("bookkeeping_ms", st.BookkeepingMs),
	)
	return order, st, nil
}

// claim binds the intent to this payment. Only one delivery of a payment
// gets past it, so the partner is never asked twice for the same intent.
func (s *Service) claim(ctx context.Context, in domain.OrderIntent, ref string) error {
	err := s.store.ClaimIntent(ctx, in.ID, ref)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return &domain.ValidationError{Reason: "order intent not found"}
	case !errors.Is(err, domain.ErrStaleStatus):
		return persistence("intent claim", err)
	}

	fresh, gerr := s.store.GetIntent(ctx, in.ID)
	if gerr != nil {
		fresh = in
	}
	serr := &domain.StateError{IntentID: in.ID, Current: fresh.Status, Want: domain.StatusStarted}
	if fresh.Status == domain.StatusStarted {
		serr.Reason = "payment " + fresh.PaymentRef + " is already being fulfilled"
	}
	s.logger.Warn("Intent already claimed",
		zap.Int64("intent_id", in.ID),
		zap.String("status", string(fresh.Status)),
		zap.String("claimed_by", fresh.PaymentRef),
		zap.String("transaction_token", ref),
	)
	return serr
}

func (s *Service) purchase(ctx context.Context, in domain.OrderIntent) (*domain.Order, string, error) {
	switch in.Type {
	case domain.IntentSim:
		order, err := s.partner.CreateOrder(ctx, partner.OrderRequest{
			PackageID:   in.PackageID,
			Quantity:    1,
			Type:        string(domain.IntentSim),
			Description: strconv.FormatInt(in.AccountID, 10),
		})
		if err != nil {
			return nil, "", err
		}
		if len(order.Sims) == 0 || order.Sims[0].ICCID == "" {
			s.logger.Error("Sims data is missing or invalid",
				zap.Int64("intent_id", in.ID),
				zap.Int64("order_id", order.ID),
			)
			return nil, "", &domain.UpstreamError{Op: "order creation", StatusCode: 200, Reason: "no sims in order response"}
		}
		if len(order.Sims) > 1 {
			s.logger.Error("Multiple eSIMs in order response, using the first",
				zap.Int64("intent_id", in.ID),
				zap.Int64("order_id", order.ID),
				zap.Int("sims", len(order.Sims)),
			)
		}
		return order, order.Sims[0].ICCID, nil

	case domain.IntentTopup:
		order, err := s.partner.CreateTopup(ctx, partner.TopupRequest{
			PackageID:   in.PackageID,
			ICCID:       in.ICCID,
			Description: strconv.FormatInt(in.AccountID, 10),
		})
		if err != nil {
			return nil, "", err
		}
		return order, in.ICCID, nil
	}
	return nil, "", &domain.ValidationError{Field: "type", Reason: "unknown intent type " + string(in.Type)}
}

// fail durably records that no order was created.
func (s *Service) fail(ctx context.Context, in domain.OrderIntent, cause error) {
	s.logger.Error("Partner purchase failed",
		zap.Int64("intent_id", in.ID),
		zap.String("package_id", in.PackageID),
		zap.Error(cause),
	)
	if err := s.Transition(ctx, in, domain.StatusFailed); err != nil {
		s.logger.Error("Failed to mark intent failed",
			zap.Int64("intent_id", in.ID),
			zap.Error(err),
		)
	}
	s.publish(ctx, domain.OrderEvent{
		Type:      domain.EventOrderFailed,
		IntentID:  in.ID,
		AccountID: in.AccountID,
		PackageID: in.PackageID,
		Kind:      in.Type,
		Reason:    cause.Error(),
	})
}

func (s *Service) bookkeep(ctx context.Context, payment domain.Payment, in domain.OrderIntent, order *domain.Order, iccid string) error {
	c := domain.Completion{IntentID: in.ID, ICCID: iccid}
	description := descriptionSim
	if in.Type == domain.IntentTopup {
		description = descriptionTopup
		c.Topup = &domain.TopupLog{
			AccountID: in.AccountID,
			OrderID:   order.ID,
			ICCID:     iccid,
			IntentID:  in.ID,
			Code:      order.Code,
			PackageID: in.PackageID,
		}
	} else {
		c.Subscription = &domain.Subscription{
			OrderID:   order.ID,
			AccountID: in.AccountID,
			ICCID:     iccid,
			PackageID: in.PackageID,
			Status:    domain.SubscriptionActive,
		}
	}
	if err := s.store.CompleteIntent(ctx, c); err != nil {
		return persistence("intent completion", err)
	}

	account, err := s.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return persistence("account lookup", err)
	}
	invoice, err := s.store.RecordCharge(ctx, domain.Charge(account, payment.Amount, in.Type, payment.TransactionToken, description))
	if err != nil {
		return persistence("ledger charge", err)
	}
	s.logger.Info("Charge recorded",
		zap.Int64("intent_id", in.ID),
		zap.String("invoice_id", invoice.InvoiceID),
		zap.String("debit", payment.Amount.String()),
	)
	return nil
}
