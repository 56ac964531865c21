package handlers

import (
	"context"
	"fmt"
	"io"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
	"shyness-client/internal/validation"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// PaymentHandler renders payouts and payout details
type PaymentHandler struct {
	session  *session.Store[models.User]
	users    *services.UserService
	payments *services.PaymentService
	query    *query.Client
	nav      Navigator
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(sess *session.Store[models.User], users *services.UserService, payments *services.PaymentService, q *query.Client, nav Navigator) *PaymentHandler {
	return &PaymentHandler{
		session:  sess,
		users:    users,
		payments: payments,
		query:    q,
		nav:      nav,
	}
}

// Payments lists payouts with totals
func (h *PaymentHandler) Payments(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/app/payments"); err != nil {
		return err
	}

	var (
		list   []models.Payment
		listRS query.RenderState
		stats  *models.PaymentStats
		streak *models.Streak
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, listRS = load(gctx, h.query, query.NewKey(ResourcePayments), h.payments.List,
			func(p []models.Payment) bool { return len(p) == 0 })
		return nil
	})
	g.Go(func() error {
		stats, _ = load(gctx, h.query, query.NewKey(ResourcePaymentStats), h.payments.Stats, nil)
		return nil
	})
	g.Go(func() error {
		streak, _ = load(gctx, h.query, query.NewKey(ResourceStreak), h.users.Streak, nil)
		return nil
	})
	g.Wait()

	// the stored user's streak is as old as the last login
	current := h.session.Snapshot().User.CurrentStreak
	if streak != nil {
		current = streak.Current
	}
	fmt.Fprintln(w, EligibilityMessage(current))

	if stats != nil {
		fmt.Fprintf(w, "\nTotal paid: %s  (%d completed, %d pending)\n",
			formatAmount(stats.TotalAmount), stats.CompletedPayments, stats.PendingPayments)
	}

	fmt.Fprintln(w)
	if ok, err := renderState(w, listRS, "payments", "No payments yet. Keep a 10-day streak to become eligible."); !ok {
		return err
	}
	for _, p := range list {
		fmt.Fprintf(w, "%s  %s  [%s]  %d-day streak  %s\n",
			humanize.Time(p.CreatedAt), formatAmount(p.Amount), p.Status, p.StreakDays, p.PaymentMethod)
	}
	return nil
}

func formatAmount(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}

// PaymentInfo shows the stored payout details
func (h *PaymentHandler) PaymentInfo(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/app/payment-info"); err != nil {
		return err
	}

	info, rs := load(ctx, h.query, query.NewKey(ResourceProfile, "payment-info"), h.users.PaymentInfo,
		func(p *models.PaymentInfo) bool { return p == nil || p.PreferredMethod == "" })
	if ok, err := renderState(w, rs, "payment information", "No payment information saved yet. Use `shyness payment-info set`."); !ok {
		return err
	}

	fmt.Fprintf(w, "Preferred method: %s\n", info.PreferredMethod)
	switch info.PreferredMethod {
	case models.MethodUPI:
		if info.UPI != nil {
			fmt.Fprintf(w, "UPI ID: %s\nName:   %s\n", info.UPI.UPIID, info.UPI.UPIName)
		}
	case models.MethodBank:
		if b := info.BankAccount; b != nil {
			fmt.Fprintf(w, "Account holder: %s\nAccount number: %s\nBank: %s (%s)\nIFSC: %s\n",
				b.AccountHolderName, maskAccount(b.AccountNumber), b.BankName, b.BranchName, b.IFSCCode)
		}
	case models.MethodPayPal:
		if p := info.PayPal; p != nil {
			fmt.Fprintf(w, "PayPal: %s\nName:   %s\n", p.Email, p.Name)
		}
	case models.MethodWallet:
		if wl := info.Wallet; wl != nil {
			fmt.Fprintf(w, "Wallet: %s %s\nName:   %s\n", wl.Type, wl.Number, wl.Name)
		}
	}
	return nil
}

func maskAccount(n string) string {
	if len(n) <= 4 {
		return n
	}
	masked := make([]byte, len(n)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + n[len(n)-4:]
}

// UpdatePaymentInfo validates and saves payout details
func (h *PaymentHandler) UpdatePaymentInfo(ctx context.Context, w io.Writer, info models.PaymentInfo) error {
	if err := guard(w, h.nav, h.session, "/app/payment-info"); err != nil {
		return err
	}

	if errs := validation.ValidatePaymentInfo(info); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	saved, err := query.Mutate(ctx, h.query, MutationPaymentInfoUpdate, func(ctx context.Context) (*models.PaymentInfo, error) {
		return h.users.UpdatePaymentInfo(ctx, info)
	})
	if err != nil {
		return notify(w, err, "", "Failed to update payment information")
	}

	if err := h.session.UpdateUser(map[string]any{"paymentInfo": saved}); err != nil {
		log.Error().Err(err).Msg("Failed to merge payment info into session")
	}
	return notify(w, nil, "Payment information updated successfully", "")
}
