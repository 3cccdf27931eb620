// Package alerting notifies operators when the token supply is not covered by casks.
package alerting

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/units"
	"github.com/mamadbah2/caskwarehouse/internal/service/attestation"
	client "github.com/mamadbah2/caskwarehouse/pkg/clients/whatsapp"
)

// ReserveShortfall is the state reported in an under-reserve alert.
type ReserveShortfall struct {
	AsOf              time.Time
	PhysicalCaskCount int64
	TokensPerCask     int64
	TotalTokenSupply  *big.Int
	AttestationHash   string
}

// Notifier sends reserve alerts.
type Notifier interface {
	NotifyShortfall(ctx context.Context, shortfall ReserveShortfall) error
}

// WhatsAppNotifier delivers alerts to one operator number through WhatsApp.
type WhatsAppNotifier struct {
	sender client.Sender
	to     string
	logger *zap.Logger
}

// NewWhatsAppNotifier wires a notifier for the given recipient.
func NewWhatsAppNotifier(sender client.Sender, to string, logger *zap.Logger) *WhatsAppNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppNotifier{sender: sender, to: to, logger: logger}
}

// NotifyShortfall sends the under-reserve message.
func (n *WhatsAppNotifier) NotifyShortfall(ctx context.Context, shortfall ReserveShortfall) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := n.sender.SendText(ctxWithTimeout, n.to, FormatShortfall(shortfall))
	if err != nil {
		return fmt.Errorf("send reserve alert: %w", err)
	}

	n.logger.Info("reserve alert sent",
		zap.String("message_id", id),
		zap.Int64("physical_casks", shortfall.PhysicalCaskCount),
		zap.Stringer("token_supply", shortfall.TotalTokenSupply))
	return nil
}

// FormatShortfall renders the alert body.
func FormatShortfall(s ReserveShortfall) string {
	ratio := attestation.ReserveRatio(s.PhysicalCaskCount, s.TokensPerCask, s.TotalTokenSupply)
	backing := s.PhysicalCaskCount * s.TokensPerCask

	var b strings.Builder
	b.WriteString("Reserve shortfall\n")
	fmt.Fprintf(&b, "As of: %s\n", units.FormatISO(s.AsOf))
	fmt.Fprintf(&b, "Physical casks: %d (%d tokens backed)\n", s.PhysicalCaskCount, backing)
	fmt.Fprintf(&b, "Token supply: %s\n", s.TotalTokenSupply)
	fmt.Fprintf(&b, "Reserve ratio: %.2f%%\n", ratio*100)
	fmt.Fprintf(&b, "Attestation: %s", s.AttestationHash)
	return b.String()
}

var _ Notifier = (*WhatsAppNotifier)(nil)
