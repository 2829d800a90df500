package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
)

type auditService struct {
	repo  ports.AuditRepository
	dedup ports.ExpiryDedup
	log   zerolog.Logger
}

// NewAuditService returns an AuditService that persists events, recording
// at most one expiry per session token.
func NewAuditService(repo ports.AuditRepository, dedup ports.ExpiryDedup, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, dedup: dedup, log: log}
}

func (s *auditService) Process(ctx context.Context, ev domain.AuthEvent) error {
	if ev.Type == domain.EventSessionExpired && ev.TokenFingerprint != "" {
		dup, err := s.dedup.IsDuplicate(ctx, ev.TokenFingerprint)
		if err != nil {
			s.log.Warn().Err(err).Str("session", ev.TokenFingerprint).Msg("expiry dedup check failed, recording anyway")
		} else if dup {
			s.log.Debug().Str("session", ev.TokenFingerprint).Msg("duplicate expiry skipped")
			return nil
		}
		if err := s.dedup.Mark(ctx, ev.TokenFingerprint); err != nil {
			s.log.Warn().Err(err).Str("session", ev.TokenFingerprint).Msg("failed to set expiry dedup key")
		}
	}

	if err := s.repo.InsertEvent(ctx, &ev); err != nil {
		return fmt.Errorf("record %s: %w", ev.Type, err)
	}
	return nil
}
