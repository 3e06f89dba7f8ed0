// Package email renders and delivers operational emails.
package email

import (
	"context"
	"fmt"
	"time"

	"poolroute_backend/platform/config"
)

// OrphanedVisitLine is one row of the orphaned visits alert.
type OrphanedVisitLine struct {
	ScheduledDate  time.Time
	PoolName       string
	TechnicianName string
	Reason         string
}

// Sender delivers the emails the scheduler raises.
type Sender interface {
	SendOrphanedVisitsAlert(ctx context.Context, toEmail, tenantName string, visits []OrphanedVisitLine) error
}

// NoopSender discards every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendOrphanedVisitsAlert(ctx context.Context, toEmail, tenantName string, visits []OrphanedVisitLine) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a NoopSender otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetEmailFromAddress() == "" {
		return nil, fmt.Errorf("email from address not configured")
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
