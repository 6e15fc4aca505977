package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
)

// Notifier is the outbound messaging boundary. Delivery is fire-and-forget:
// the caller does not retry, but a returned error aborts the triggering
// operation.
type Notifier interface {
	NewRegistration(ctx context.Context, reg *models.Registration, affiliate *models.User, program *models.Program) error
	PayoutStatusChanged(ctx context.Context, affiliateEmail string, amount string, status models.PayoutStatus) error
	Welcome(ctx context.Context, email string, affiliateCode *string) error
}

// NotificationService formats human-readable notification messages. This
// implementation only logs them; real delivery sits behind the same
// interface.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService constructs a log-backed notifier.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger}
}

// NewRegistration announces a student signup to the back office.
func (s *NotificationService) NewRegistration(ctx context.Context, reg *models.Registration, affiliate *models.User, program *models.Program) error {
	msg := fmt.Sprintf("New registration: %s signed up for %s via affiliate %s (commission %s)",
		reg.StudentName, program.Name, affiliate.Email, reg.CommissionAmount.StringFixed(2))
	s.logger.Info("notification",
		zap.String("kind", "new_registration"),
		zap.String("registration_id", reg.ID),
		zap.String("message", msg),
	)
	return nil
}

// PayoutStatusChanged informs an affiliate about a payout transition.
func (s *NotificationService) PayoutStatusChanged(ctx context.Context, affiliateEmail string, amount string, status models.PayoutStatus) error {
	msg := fmt.Sprintf("Your payout request of %s is now %s", amount, status)
	s.logger.Info("notification",
		zap.String("kind", "payout_status_changed"),
		zap.String("recipient", affiliateEmail),
		zap.String("message", msg),
	)
	return nil
}

// Welcome greets a freshly registered account. A nil affiliate code means
// the account is not an affiliate and the message is skipped.
func (s *NotificationService) Welcome(ctx context.Context, email string, affiliateCode *string) error {
	if affiliateCode == nil {
		return nil
	}
	msg := fmt.Sprintf("Welcome aboard! Your affiliate code is %s", *affiliateCode)
	s.logger.Info("notification",
		zap.String("kind", "welcome"),
		zap.String("recipient", email),
		zap.String("message", msg),
	)
	return nil
}
