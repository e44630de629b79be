package services

import (
	"context"
	"time"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
)

// readyFlagQuorum is how many threshold flags must be set before a collecting
// candidate is surfaced for review. Both flags exist today, so quorum equals
// "all", but the count is what the rule is defined on.
const readyFlagQuorum = 2

// CandidateLifecycleService evaluates approval readiness for mapping
// candidates. It only detects readiness; the actual approval (alias creation,
// status flip to approved) is a human decision made through the review API.
type CandidateLifecycleService struct {
	candidateRepo repositories.MappingCandidateRepository
	settingsRepo  repositories.SettingsRepository
}

// NewCandidateLifecycleService creates a new candidate lifecycle service
func NewCandidateLifecycleService(
	candidateRepo repositories.MappingCandidateRepository,
	settingsRepo repositories.SettingsRepository,
) *CandidateLifecycleService {
	return &CandidateLifecycleService{
		candidateRepo: candidateRepo,
		settingsRepo:  settingsRepo,
	}
}

// CheckApprovalConditions re-evaluates the threshold flags for a candidate and
// promotes it from collecting to pending_review once enough flags are set.
// The gate is one-way: a candidate never drops back to collecting, and flags
// are never cleared once set.
func (s *CandidateLifecycleService) CheckApprovalConditions(ctx context.Context, candidateID string) error {
	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		return err
	}
	if candidate.Status.IsTerminal() {
		return nil
	}

	settings, err := s.settingsRepo.GetMappingApprovalSettings(ctx)
	if err != nil {
		return err
	}

	meetsCases := candidate.MeetsCaseThreshold || candidate.CaseCount >= settings.MinCases
	meetsTime := candidate.MeetsTimeThreshold ||
		time.Since(candidate.FirstSeenAt) >= time.Duration(settings.MinDays)*24*time.Hour

	if meetsCases != candidate.MeetsCaseThreshold || meetsTime != candidate.MeetsTimeThreshold {
		if err := s.candidateRepo.SetThresholdFlags(ctx, candidateID, meetsCases, meetsTime); err != nil {
			return err
		}
	}

	flagsSet := 0
	if meetsCases {
		flagsSet++
	}
	if meetsTime {
		flagsSet++
	}

	if candidate.Status == entities.CandidateStatusCollecting && flagsSet >= readyFlagQuorum {
		if err := s.candidateRepo.UpdateStatus(ctx, candidateID, entities.CandidateStatusPendingReview); err != nil {
			return err
		}
		observability.LoggerFromContext(ctx).Info().
			Str("candidate_id", candidateID).
			Int("case_count", candidate.CaseCount).
			Msg("Mapping candidate ready for review")
	}

	return nil
}
