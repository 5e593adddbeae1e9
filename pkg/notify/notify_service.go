// Package notify mails a digest of lots that are about to expire.
package notify

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils/mailing"
	"Pantry-Ledger/pkg/inventory"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("no digest recipient configured")

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<p>{{len .Items}} item(s) in your pantry expire within {{.Days}} day(s).</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Expires</th><th>Days left</th><th>Storage</th></tr>
{{- range .Items}}
<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.ExpiryDate.Format "2006-01-02"}}</td><td>{{.DaysRemaining}}</td><td>{{.StorageType}}</td></tr>
{{- end}}
</table>
</body></html>`))

type (
	NotifyService interface {
		SendExpiringDigest(ctx context.Context, days int) (int, error)
	}

	notifyService struct {
		inventoryService inventory.InventoryService
		mailer           mailing.Mailer
		recipient        string
		logger           *zap.Logger
	}
)

func NewNotifyService(inventoryService inventory.InventoryService, mailer mailing.Mailer, recipient string, logger *zap.Logger) NotifyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notifyService{
		inventoryService: inventoryService,
		mailer:           mailer,
		recipient:        recipient,
		logger:           logger,
	}
}

// SendExpiringDigest mails the lots expiring within days and returns how
// many were listed. Nothing is sent when no lot qualifies.
func (s *notifyService) SendExpiringDigest(ctx context.Context, days int) (int, error) {
	if s.recipient == "" {
		return 0, ErrNoRecipient
	}

	items, err := s.inventoryService.GetExpiringSoon(ctx, days)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		s.logger.Info("no expiring items, digest skipped", zap.Int("days", days))
		return 0, nil
	}

	subject, body, err := RenderDigest(items, days)
	if err != nil {
		return 0, err
	}
	if err := s.mailer.SendMail(s.recipient, subject, body); err != nil {
		return 0, err
	}

	s.logger.Info("expiring digest sent",
		zap.String("to", s.recipient),
		zap.Int("items", len(items)))
	return len(items), nil
}

func RenderDigest(items []domain.ExpiringItem, days int) (string, string, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Items []domain.ExpiringItem
		Days  int
	}{items, days})
	if err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}

	subject := fmt.Sprintf("[Pantry] %d item(s) expiring soon", len(items))
	return subject, buf.String(), nil
}
