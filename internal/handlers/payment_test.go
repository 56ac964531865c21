package handlers

import (
	"bytes"
	"context"
	"testing"

	"shyness-client/internal/models"
	"shyness-client/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskAccount(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"1234":         "1234",
		"123456789012": "********9012",
	}
	for in, want := range tests {
		assert.Equal(t, want, maskAccount(in), "maskAccount(%q)", in)
	}
}

func TestUserPaymentsPage(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.signIn(t, "Asha")

	var out bytes.Buffer
	require.NoError(t, e.payH.Payments(ctx, &out))
	assert.Contains(t, out.String(), "No payments yet.")

	_, err := e.srv.AddPayment(u.ID, 100, models.PaymentCompleted)
	require.NoError(t, err)
	require.NoError(t, e.q.Invalidate(ctx, ResourcePayments, ResourcePaymentStats))

	out.Reset()
	require.NoError(t, e.payH.Payments(ctx, &out))
	for _, want := range []string{"Total paid: $100", "(1 completed, 0 pending)", "[completed]"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestPaymentsEligibilityUsesCurrentStreak(t *testing.T) {
	e := newTestEnv(t)
	u := e.signIn(t, "Asha")
	require.NoError(t, e.srv.SetStreak(u.ID, 12))

	var out bytes.Buffer
	require.NoError(t, e.payH.Payments(context.Background(), &out))
	assert.Contains(t, out.String(), "You've maintained a 12-day streak.")
	assert.Equal(t, 1, e.srv.Hits("/user/streak"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$100", formatAmount(100))
	assert.Equal(t, "$1,250.5", formatAmount(1250.5))
}

func TestUpdatePaymentInfo(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signIn(t, "Asha")

	var out bytes.Buffer
	bad := models.PaymentInfo{PreferredMethod: models.MethodUPI, UPI: &models.UPI{UPIID: "not a upi"}}
	var verrs validation.Errors
	require.ErrorAs(t, e.payH.UpdatePaymentInfo(ctx, &out, bad), &verrs)
	assert.Zero(t, e.srv.Hits("/user/payment-info"), "invalid payment info sent to the server")

	out.Reset()
	good := models.PaymentInfo{PreferredMethod: models.MethodUPI, UPI: &models.UPI{UPIID: "asha@okbank", UPIName: "Asha"}}
	require.NoError(t, e.payH.UpdatePaymentInfo(ctx, &out, good), out.String())

	pi := e.user.Snapshot().User.PaymentInfo
	require.NotNil(t, pi)
	require.NotNil(t, pi.UPI)
	assert.Equal(t, "asha@okbank", pi.UPI.UPIID)

	out.Reset()
	require.NoError(t, e.payH.PaymentInfo(ctx, &out))
	assert.Contains(t, out.String(), "UPI ID: asha@okbank")
}
