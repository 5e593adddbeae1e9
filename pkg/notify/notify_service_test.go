package notify

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/pkg/inventory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	inventory.InventoryService
	items []domain.ExpiringItem
	err   error
	days  int
}

func (f *fakeInventory) GetExpiringSoon(_ context.Context, days int) ([]domain.ExpiringItem, error) {
	f.days = days
	return f.items, f.err
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendMail(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func expiring() []domain.ExpiringItem {
	return []domain.ExpiringItem{
		{
			Name:          "明治おいしい牛乳",
			Quantity:      1,
			ExpiryDate:    time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC),
			DaysRemaining: 1,
			StorageType:   domain.StorageRefrigerated,
		},
		{
			Name:          "<b>tofu</b>",
			Quantity:      2,
			ExpiryDate:    time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
			DaysRemaining: 2,
			StorageType:   domain.StorageRefrigerated,
		},
	}
}

func TestRenderDigest(t *testing.T) {
	subject, body, err := RenderDigest(expiring(), 3)
	require.NoError(t, err)

	assert.Equal(t, "[Pantry] 2 item(s) expiring soon", subject)
	assert.Contains(t, body, "expire within 3 day(s)")
	assert.Contains(t, body, "<td>明治おいしい牛乳</td>")
	assert.Contains(t, body, "2026-02-19")
	assert.Contains(t, body, "&lt;b&gt;tofu&lt;/b&gt;")
	assert.NotContains(t, body, "<b>tofu</b>")
}

func TestSendExpiringDigest(t *testing.T) {
	inv := &fakeInventory{items: expiring()}
	mailer := &fakeMailer{}
	svc := NewNotifyService(inv, mailer, "me@example.com", nil)

	n, err := svc.SendExpiringDigest(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, inv.days)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "me@example.com", mailer.sent[0].to)
}

func TestSendExpiringDigest_NothingExpiring(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewNotifyService(&fakeInventory{}, mailer, "me@example.com", nil)

	n, err := svc.SendExpiringDigest(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mailer.sent)
}

func TestSendExpiringDigest_Errors(t *testing.T) {
	_, err := NewNotifyService(&fakeInventory{}, &fakeMailer{}, "", nil).SendExpiringDigest(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNoRecipient)

	boom := errors.New("smtp down")
	_, err = NewNotifyService(&fakeInventory{items: expiring()}, &fakeMailer{err: boom}, "me@example.com", nil).
		SendExpiringDigest(context.Background(), 3)
	assert.ErrorIs(t, err, boom)

	_, err = NewNotifyService(&fakeInventory{err: domain.ErrInvalidDays}, &fakeMailer{}, "me@example.com", nil).
		SendExpiringDigest(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidDays)
}
