package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxydesk/internal/domain"
	"proxydesk/internal/ledger"
	"proxydesk/internal/rates"
	"proxydesk/internal/repository/memory"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

func newLedgerService(t *testing.T) (*ledger.Service, *rates.Service) {
	t.Helper()
	ratesService := rates.NewService(memory.NewRatesRepository(), nil, nil, time.Second, time.Minute, logger.NewNop())
	svc := ledger.NewService(memory.NewLedgerRepository(), ratesService, logger.NewNop())
	return svc, ratesService
}

func record(t *testing.T, svc *ledger.Service, userID uuid.UUID, amount string, channel domain.Channel) *domain.PaymentTransaction {
	t.Helper()
	tx, err := svc.Record(context.Background(), &ledger.RecordRequest{
		UserID:    userID,
		AmountUSD: decimal.RequireFromString(amount),
		Channel:   channel,
		Reference: uuid.NewString(),
	})
	require.NoError(t, err)
	return tx
}

func TestRecord(t *testing.T) {
	svc, _ := newLedgerService(t)

	tx := record(t, svc, uuid.New(), "25.50", domain.ChannelNigeria)
	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.True(t, tx.AmountUSD.Equal(decimal.RequireFromString("25.50")))

	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
}

func TestRecord_Rejections(t *testing.T) {
	svc, _ := newLedgerService(t)

	_, err := svc.Record(context.Background(), &ledger.RecordRequest{
		UserID:    uuid.New(),
		AmountUSD: decimal.Zero,
		Channel:   domain.ChannelGhana,
		Reference: "ref",
	})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidAmount)

	_, err = svc.Record(context.Background(), &ledger.RecordRequest{
		UserID:    uuid.New(),
		AmountUSD: decimal.NewFromInt(10),
		Channel:   domain.Channel("kenya"),
		Reference: "ref",
	})
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedForChannel)
}

func TestApproveDisapprove_ReEnterable(t *testing.T) {
	svc, _ := newLedgerService(t)
	tx := record(t, svc, uuid.New(), "10", domain.ChannelNigeria)

	require.NoError(t, svc.Approve(context.Background(), tx.ID))
	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, got.Status)

	// Approval is a reversible label, not a one-way gate
	require.NoError(t, svc.Disapprove(context.Background(), tx.ID))
	got, err = svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusDisapproved, got.Status)

	require.NoError(t, svc.Approve(context.Background(), tx.ID))
	got, err = svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, got.Status)
}

func TestApprove_UnknownTransaction(t *testing.T) {
	svc, _ := newLedgerService(t)

	err := svc.Approve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
}

func TestCorrectAmount(t *testing.T) {
	svc, ratesService := newLedgerService(t)
	require.NoError(t, ratesService.SetRate(context.Background(), domain.GHS, decimal.RequireFromString("12.0"), uuid.New()))

	tx := record(t, svc, uuid.New(), "15", domain.ChannelGhana)

	// Admin enters 120 GHS; at 12.0 GHS/USD the canonical amount becomes 10 USD
	updated, err := svc.CorrectAmount(context.Background(), tx.ID, decimal.RequireFromString("120"), domain.GHS)
	require.NoError(t, err)
	assert.True(t, updated.AmountUSD.Equal(decimal.RequireFromString("10")))

	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountUSD.Equal(decimal.RequireFromString("10")))
}

func TestCorrectAmount_RequiresConfiguredRate(t *testing.T) {
	svc, _ := newLedgerService(t)
	tx := record(t, svc, uuid.New(), "15", domain.ChannelNigeria)

	_, err := svc.CorrectAmount(context.Background(), tx.ID, decimal.RequireFromString("5000"), domain.NGN)
	assert.ErrorIs(t, err, pkgerrors.ErrRateNotConfigured)

	// Amount untouched by the failed correction
	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountUSD.Equal(decimal.RequireFromString("15")))
}

func TestCorrectAmount_CryptoIsImmutable(t *testing.T) {
	svc, ratesService := newLedgerService(t)
	require.NoError(t, ratesService.SetRate(context.Background(), domain.NGN, decimal.RequireFromString("1500"), uuid.New()))

	tx := record(t, svc, uuid.New(), "50", domain.ChannelCrypto)

	_, err := svc.CorrectAmount(context.Background(), tx.ID, decimal.RequireFromString("100"), domain.NGN)
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedForChannel)
}

func TestCorrectAmount_RejectsNonPositive(t *testing.T) {
	svc, ratesService := newLedgerService(t)
	require.NoError(t, ratesService.SetRate(context.Background(), domain.GHS, decimal.RequireFromString("12"), uuid.New()))

	tx := record(t, svc, uuid.New(), "15", domain.ChannelGhana)

	_, err := svc.CorrectAmount(context.Background(), tx.ID, decimal.Zero, domain.GHS)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidAmount)
}

func TestList_ConjunctiveFilters(t *testing.T) {
	svc, _ := newLedgerService(t)
	alice := uuid.New()
	bob := uuid.New()

	txA := record(t, svc, alice, "10", domain.ChannelNigeria)
	record(t, svc, alice, "200", domain.ChannelNigeria)
	record(t, svc, bob, "10", domain.ChannelNigeria)
	record(t, svc, alice, "10", domain.ChannelGhana)

	require.NoError(t, svc.Approve(context.Background(), txA.ID))

	status := domain.TransactionStatusApproved
	channel := domain.ChannelNigeria
	maxAmount := decimal.NewFromInt(50)
	list, err := svc.List(context.Background(), ledger.Filter{
		Status:       &status,
		UserID:       &alice,
		Channel:      &channel,
		MaxAmountUSD: &maxAmount,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, txA.ID, list[0].ID)
}

func TestList_DateWindow(t *testing.T) {
	svc, _ := newLedgerService(t)
	tx := record(t, svc, uuid.New(), "10", domain.ChannelNigeria)

	past := tx.CreatedAt.Add(-time.Hour)
	future := tx.CreatedAt.Add(time.Hour)

	list, err := svc.List(context.Background(), ledger.Filter{DateFrom: &past, DateTo: &future})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(context.Background(), ledger.Filter{DateFrom: &future})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	svc, _ := newLedgerService(t)
	tx := record(t, svc, uuid.New(), "10", domain.ChannelNigeria)

	require.NoError(t, svc.Delete(context.Background(), tx.ID))

	_, err := svc.Get(context.Background(), tx.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)

	err = svc.Delete(context.Background(), tx.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrTransactionNotFound)
}

func TestTotals(t *testing.T) {
	svc, _ := newLedgerService(t)

	txA := record(t, svc, uuid.New(), "10", domain.ChannelNigeria)
	txB := record(t, svc, uuid.New(), "20", domain.ChannelGhana)
	record(t, svc, uuid.New(), "40", domain.ChannelCrypto)

	require.NoError(t, svc.Approve(context.Background(), txA.ID))
	require.NoError(t, svc.Disapprove(context.Background(), txB.ID))

	totals, err := svc.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, totals.CountByStatus[domain.TransactionStatusApproved])
	assert.Equal(t, 1, totals.CountByStatus[domain.TransactionStatusDisapproved])
	assert.Equal(t, 1, totals.CountByStatus[domain.TransactionStatusPending])
	assert.True(t, totals.ApprovedVolumeUSD.Equal(decimal.NewFromInt(10)))
}
