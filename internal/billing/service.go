package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vivebien-dashboard/internal/store"
)

// Service provides billing operations.
//
// Money invariants:
// - No balance updates without a ledger entry
// - Ledger is append-only (immutable)
// - All money operations must be executed in a DB transaction
//
// There is deliberately no idempotency key and no current-state pre-check on
// subscription transitions: a double submit produces two ledger entries, and
// pausing an already-paused account silently succeeds. Making those strict is
// a business-rule decision that has not been taken; do not guard them here
// without one.
type Service struct {
	store *store.Store
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, clock: time.Now}
}

var (
	ErrNoBillingAccount = errors.New("no billing account found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidAction    = errors.New("invalid action")
)

// AdjustCredits applies a signed credit change to a user's billing account
// and appends exactly one ledger row in the same transaction. Returns the
// new balance. Users without a billing account are not auto-created here.
func (s *Service) AdjustCredits(ctx context.Context, userID string, amount int, description string) (int, error) {
	if userID == "" || description == "" {
		return 0, ErrInvalidArgument
	}

	now := s.clock().UTC()
	var newBalance int

	err := s.store.InTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		acc, err := s.accountForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		newBalance = acc.CreditsBalance + amount
		if err := s.setBalance(ctx, tx, acc.ID, newBalance, now); err != nil {
			return err
		}
		return s.appendLedger(ctx, tx, acc.ID, userID, amount, changeTypeForAdjustment(amount), newBalance, description, now)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// SubscriptionRequest is a single subscription lifecycle action.
type SubscriptionRequest struct {
	UserID        string
	Action        string
	CancelReason  string
	ExtensionDays int
}

// Subscription applies one lifecycle action and returns the operator-facing
// confirmation message.
//
// activate is the only upsert: with an existing account it updates the
// subscription fields and then increments the balance by the monthly
// allowance as a separate statement, both logged through one ledger row.
func (s *Service) Subscription(ctx context.Context, req SubscriptionRequest) (string, error) {
	if req.UserID == "" || req.Action == "" {
		return "", ErrInvalidArgument
	}
	switch req.Action {
	case "activate", "pause", "resume", "cancel", "extend":
	default:
		return "", ErrInvalidAction
	}

	now := s.clock().UTC()
	nextMonth := now.AddDate(0, 1, 0)
	var message string

	err := s.store.InTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		acc, err := s.accountForUpdate(ctx, tx, req.UserID)
		if err != nil && !errors.Is(err, ErrNoBillingAccount) {
			return err
		}
		exists := err == nil

		switch req.Action {
		case "activate":
			if exists {
				if err := s.reactivateAccount(ctx, tx, req.UserID, nextMonth, now); err != nil {
					return err
				}
				balance, err := s.incrementBalance(ctx, tx, req.UserID, MonthlyAllowance)
				if err != nil {
					return err
				}
				if err := s.appendLedger(ctx, tx, acc.ID, req.UserID, MonthlyAllowance, ChangeSubscription, balance, "Subscription activated - Monthly allowance", now); err != nil {
					return err
				}
			} else {
				accID, err := s.insertAccount(ctx, tx, req.UserID, nextMonth, now)
				if err != nil {
					return err
				}
				if err := s.appendLedger(ctx, tx, accID, req.UserID, MonthlyAllowance, ChangeSubscription, MonthlyAllowance, "Subscription activated - Initial credits", now); err != nil {
					return err
				}
			}
			message = "Subscription activated successfully! $12/month plan started."
			return nil

		case "pause":
			if !exists {
				return ErrNoBillingAccount
			}
			if err := s.setStatus(ctx, tx, req.UserID, SubscriptionPaused, now); err != nil {
				return err
			}
			message = "Subscription paused. Billing is on hold."
			return nil

		case "resume":
			if !exists {
				return ErrNoBillingAccount
			}
			if err := s.resumeAccount(ctx, tx, req.UserID, nextMonth, now); err != nil {
				return err
			}
			message = "Subscription resumed successfully!"
			return nil

		case "cancel":
			if !exists {
				return ErrNoBillingAccount
			}
			if err := s.cancelAccount(ctx, tx, req.UserID, now); err != nil {
				return err
			}
			if req.CancelReason != "" {
				desc := "Subscription cancelled: " + req.CancelReason
				if err := s.appendLedger(ctx, tx, acc.ID, req.UserID, 0, ChangeAdmin, acc.CreditsBalance, desc, now); err != nil {
					return err
				}
			}
			message = "Subscription cancelled. Access continues until current period ends."
			return nil

		case "extend":
			if !exists {
				return ErrNoBillingAccount
			}
			days := req.ExtensionDays
			if days <= 0 {
				days = 30
			}
			newReset := extendResetDate(acc.CreditsResetAt, now, days)
			if err := s.setResetDate(ctx, tx, req.UserID, newReset, now); err != nil {
				return err
			}
			desc := fmt.Sprintf("Billing extended by %d days", days)
			if err := s.appendLedger(ctx, tx, acc.ID, req.UserID, 0, ChangeAdmin, acc.CreditsBalance, desc, now); err != nil {
				return err
			}
			message = fmt.Sprintf("Billing date extended by %d days to %s.", days, newReset.Format("1/2/2006"))
			return nil

		default:
			// unreachable; actions are validated before the transaction
			return ErrInvalidAction
		}
	})
	if err != nil {
		return "", err
	}
	return message, nil
}

// GetSubscription returns the billing snapshot joined with patient identity.
// ok is false when the user has no billing account; callers render the
// "none" default in that case.
func (s *Service) GetSubscription(ctx context.Context, userID string) (SubscriptionDetail, bool, error) {
	if userID == "" {
		return SubscriptionDetail{}, false, ErrInvalidArgument
	}
	if !s.store.Enabled() {
		return SubscriptionDetail{}, false, store.ErrNotConfigured
	}
	return s.querySubscriptionDetail(ctx, userID)
}

// CreditHistory lists the most recent ledger entries for a user, newest
// first. Fail-open: storage errors degrade to an empty list.
func (s *Service) CreditHistory(ctx context.Context, userID string) []CreditLedgerEntry {
	if !s.store.Enabled() || userID == "" {
		return []CreditLedgerEntry{}
	}
	out, err := s.queryCreditHistory(ctx, userID, 50)
	if err != nil {
		s.store.Log().Error("credit history query failed", "user_id", userID, "err", err)
		return []CreditLedgerEntry{}
	}
	return out
}

// AccountsOverview returns the credits page row set and header stats.
// Fail-open on both.
func (s *Service) AccountsOverview(ctx context.Context) ([]CreditAccount, CreditStats) {
	if !s.store.Enabled() {
		return []CreditAccount{}, CreditStats{}
	}
	accounts, err := s.queryAccounts(ctx)
	if err != nil {
		s.store.Log().Error("credit accounts query failed", "err", err)
		accounts = []CreditAccount{}
	}
	stats, err := s.queryCreditStats(ctx)
	if err != nil {
		s.store.Log().Error("credit stats query failed", "err", err)
		stats = CreditStats{}
	}
	return accounts, stats
}

func changeTypeForAdjustment(amount int) string {
	if amount > 0 {
		return ChangeAdminAdd
	}
	return ChangeAdminDeduct
}

// extendResetDate shifts the reset date forward by days, starting from now
// when the account never had one.
func extendResetDate(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil {
		base = *current
	}
	return base.AddDate(0, 0, days)
}
