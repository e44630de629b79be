package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
	"github.com/medisight/clinicpricewatch/pkg/utils"
)

// Resolution methods, in cascade order.
const (
	ResolutionMethodDirect       = "direct"
	ResolutionMethodExact        = "exact"
	ResolutionMethodAlias        = "alias"
	ResolutionMethodPackage      = "package"
	ResolutionMethodCandidate    = "candidate"
	ResolutionMethodNewCandidate = "new_candidate"
)

// aliasConfidenceFloor is the minimum stored confidence at which an alias
// match is accepted. Below it the alias is treated as not found and the
// cascade falls through to the candidate path. Lowering this trades precision
// for recall and must not happen silently.
const aliasConfidenceFloor = 80

// ResolveProcedureInput carries one procedure mention to resolve. HospitalID
// and SourceURL are only used for the audit trail when a new candidate is
// created.
type ResolveProcedureInput struct {
	ProcedureID   string
	ProcedureName string
	Category      string
	Subcategory   string
	Price         float64
	HospitalID    string
	SourceURL     string
}

// ResolutionResult is the outcome of one cascade run.
type ResolutionResult struct {
	ProcedureID entities.ResolvedID
	Method      string
	IsNew       bool
	IsCandidate bool
	Confidence  int
}

// NameResolutionService turns free-text procedure mentions into canonical
// identities via a tiered cascade: direct id, exact name, alias, package,
// existing candidate, new candidate. First hit wins. The first three tiers are
// read-only; the candidate tiers write.
type NameResolutionService struct {
	procedureRepo repositories.ProcedureRepository
	aliasRepo     repositories.ProcedureAliasRepository
	packageRepo   repositories.ProcedurePackageRepository
	candidateRepo repositories.MappingCandidateRepository
	collectedRepo repositories.CollectedNameRepository
	lifecycle     *CandidateLifecycleService
	metrics       *observability.Metrics
}

// NewNameResolutionService creates a new name resolution service
func NewNameResolutionService(
	procedureRepo repositories.ProcedureRepository,
	aliasRepo repositories.ProcedureAliasRepository,
	packageRepo repositories.ProcedurePackageRepository,
	candidateRepo repositories.MappingCandidateRepository,
	collectedRepo repositories.CollectedNameRepository,
	lifecycle *CandidateLifecycleService,
	metrics *observability.Metrics,
) *NameResolutionService {
	return &NameResolutionService{
		procedureRepo: procedureRepo,
		aliasRepo:     aliasRepo,
		packageRepo:   packageRepo,
		candidateRepo: candidateRepo,
		collectedRepo: collectedRepo,
		lifecycle:     lifecycle,
		metrics:       metrics,
	}
}

// Resolve runs the cascade for one procedure mention.
func (s *NameResolutionService) Resolve(ctx context.Context, input ResolveProcedureInput) (*ResolutionResult, error) {
	// Tier 0: an explicit id is trusted as-is.
	if input.ProcedureID != "" {
		return &ResolutionResult{
			ProcedureID: entities.ParseResolvedID(input.ProcedureID),
			Method:      ResolutionMethodDirect,
			Confidence:  100,
		}, nil
	}

	if input.ProcedureName == "" {
		return nil, apperrors.NewValidationError("procedure id or name is required")
	}

	normalized := utils.NormalizeProcedureName(input.ProcedureName)

	// Tier 1: exact match on a canonical procedure name.
	procedure, err := s.procedureRepo.GetByName(ctx, input.ProcedureName, normalized)
	if err == nil {
		return &ResolutionResult{
			ProcedureID: entities.NewProcedureID(procedure.ID),
			Method:      ResolutionMethodExact,
			Confidence:  100,
		}, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Tier 2: best alias, accepted only at or above the confidence floor.
	alias, err := s.aliasRepo.FindBestMatch(ctx, input.ProcedureName, normalized)
	if err == nil && alias.Confidence >= aliasConfidenceFloor {
		return &ResolutionResult{
			ProcedureID: entities.NewProcedureID(alias.ProcedureID),
			Method:      ResolutionMethodAlias,
			Confidence:  alias.Confidence,
		}, nil
	}
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Tier 3: combo-treatment package.
	pkg, err := s.packageRepo.GetByName(ctx, input.ProcedureName, normalized)
	if err == nil {
		return &ResolutionResult{
			ProcedureID: entities.NewPackageID(pkg.ID),
			Method:      ResolutionMethodPackage,
			Confidence:  90,
		}, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Tier 4: a candidate already tracks this normalized name.
	candidate, err := s.candidateRepo.GetByNormalizedName(ctx, normalized)
	if err == nil {
		return s.resolveExistingCandidate(ctx, candidate, input)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	// Tier 5: first sighting, open a new candidate.
	return s.createCandidate(ctx, input, normalized)
}

func (s *NameResolutionService) resolveExistingCandidate(ctx context.Context, candidate *entities.MappingCandidate, input ResolveProcedureInput) (*ResolutionResult, error) {
	if err := s.candidateRepo.RecordSighting(ctx, candidate.ID, input.Price, time.Now()); err != nil {
		return nil, err
	}
	if err := s.lifecycle.CheckApprovalConditions(ctx, candidate.ID); err != nil {
		return nil, err
	}

	// An approved candidate that was linked to a procedure resolves through
	// that link from then on.
	if candidate.Status == entities.CandidateStatusApproved && candidate.LinkedProcedureID != nil {
		return &ResolutionResult{
			ProcedureID: entities.NewProcedureID(*candidate.LinkedProcedureID),
			Method:      ResolutionMethodAlias,
			Confidence:  90,
			IsCandidate: true,
		}, nil
	}

	return &ResolutionResult{
		ProcedureID: entities.NewCandidateID(candidate.ID),
		Method:      ResolutionMethodCandidate,
		IsCandidate: true,
	}, nil
}

func (s *NameResolutionService) createCandidate(ctx context.Context, input ResolveProcedureInput, normalized string) (*ResolutionResult, error) {
	now := time.Now()
	candidate := &entities.MappingCandidate{
		ID:             uuid.New().String(),
		RawName:        input.ProcedureName,
		NormalizedName: normalized,
		Status:         entities.CandidateStatusCollecting,
		CaseCount:      1,
		PriceTotal:     input.Price,
		AvgPrice:       input.Price,
		MinPrice:       input.Price,
		MaxPrice:       input.Price,
		FirstSeenAt:    now,
		LastSeenAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.candidateRepo.Create(ctx, candidate, input.Price); err != nil {
		return nil, err
	}

	collected := &entities.CollectedProcedureName{
		ID:             uuid.New().String(),
		RawName:        input.ProcedureName,
		NormalizedName: normalized,
		CandidateID:    candidate.ID,
		HospitalID:     input.HospitalID,
		SourceURL:      input.SourceURL,
		CollectedAt:    now,
	}
	if err := s.collectedRepo.Record(ctx, collected); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CandidateCount.Add(ctx, 1)
	}
	observability.LoggerFromContext(ctx).Info().
		Str("candidate_id", candidate.ID).
		Str("raw_name", input.ProcedureName).
		Msg("New mapping candidate created")

	return &ResolutionResult{
		ProcedureID: entities.NewCandidateID(candidate.ID),
		Method:      ResolutionMethodNewCandidate,
		IsNew:       true,
		IsCandidate: true,
	}, nil
}
