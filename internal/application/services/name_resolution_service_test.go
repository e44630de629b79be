package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

type resolutionFixture struct {
	service    *NameResolutionService
	procedures *fakeProcedureRepo
	aliases    *fakeAliasRepo
	packages   *fakePackageRepo
	candidates *fakeCandidateRepo
	collected  *fakeCollectedRepo
	settings   *fakeSettingsRepo
}

func newResolutionFixture() *resolutionFixture {
	f := &resolutionFixture{
		procedures: newFakeProcedureRepo(),
		aliases:    newFakeAliasRepo(),
		packages:   newFakePackageRepo(),
		candidates: newFakeCandidateRepo(),
		collected:  newFakeCollectedRepo(),
		settings:   newFakeSettingsRepo(),
	}
	lifecycle := NewCandidateLifecycleService(f.candidates, f.settings)
	f.service = NewNameResolutionService(
		f.procedures, f.aliases, f.packages, f.candidates, f.collected, lifecycle, nil,
	)
	return f
}

func TestResolve_DirectID(t *testing.T) {
	f := newResolutionFixture()

	result, err := f.service.Resolve(context.Background(), ResolveProcedureInput{ProcedureID: "proc-1"})

	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodDirect, result.Method)
	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, "proc-1", result.ProcedureID.String())
	assert.False(t, result.IsCandidate)
}

func TestResolve_MissingNameFails(t *testing.T) {
	f := newResolutionFixture()

	_, err := f.service.Resolve(context.Background(), ResolveProcedureInput{})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestResolve_ExactMatch(t *testing.T) {
	f := newResolutionFixture()
	f.procedures.Create(context.Background(), &entities.Procedure{
		ID:             "proc-ulthera",
		Name:           "Ulthera",
		KoreanName:     "울쎄라",
		NormalizedName: "울쎄라",
	})

	// Price and category must not affect the match.
	result, err := f.service.Resolve(context.Background(), ResolveProcedureInput{
		ProcedureName: "울쎄라",
		Category:      "lifting",
		Price:         123456,
	})

	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodExact, result.Method)
	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, "proc-ulthera", result.ProcedureID.Value)
	assert.Equal(t, entities.IDKindProcedure, result.ProcedureID.Kind)
}

func TestResolve_AliasConfidenceBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("confidence 79 falls through", func(t *testing.T) {
		f := newResolutionFixture()
		f.aliases.Create(ctx, &entities.ProcedureAlias{
			ID: "alias-1", ProcedureID: "proc-1",
			AliasName: "울세라", NormalizedName: "울세라", Confidence: 79,
		})

		result, err := f.service.Resolve(ctx, ResolveProcedureInput{ProcedureName: "울세라"})

		require.NoError(t, err)
		assert.Equal(t, ResolutionMethodNewCandidate, result.Method)
		assert.True(t, result.IsCandidate)
	})

	t.Run("confidence 80 is accepted", func(t *testing.T) {
		f := newResolutionFixture()
		f.aliases.Create(ctx, &entities.ProcedureAlias{
			ID: "alias-1", ProcedureID: "proc-1",
			AliasName: "울세라", NormalizedName: "울세라", Confidence: 80,
		})

		result, err := f.service.Resolve(ctx, ResolveProcedureInput{ProcedureName: "울세라"})

		require.NoError(t, err)
		assert.Equal(t, ResolutionMethodAlias, result.Method)
		assert.Equal(t, 80, result.Confidence)
		assert.Equal(t, "proc-1", result.ProcedureID.Value)
	})
}

func TestResolve_PackageMatch(t *testing.T) {
	f := newResolutionFixture()
	f.packages.Create(context.Background(), &entities.ProcedurePackage{
		ID:             "pack-1",
		Name:           "울쎄라+슈링크 패키지",
		NormalizedName: "울쎄라슈링크패키지",
		ProcedureIDs:   []string{"proc-1", "proc-2"},
	})

	result, err := f.service.Resolve(context.Background(), ResolveProcedureInput{
		ProcedureName: "울쎄라+슈링크 패키지",
	})

	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodPackage, result.Method)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, entities.IDKindPackage, result.ProcedureID.Kind)
	assert.Equal(t, "pkg_pack-1", result.ProcedureID.String())
}

func TestResolve_NewThenExistingCandidate(t *testing.T) {
	f := newResolutionFixture()
	ctx := context.Background()
	input := ResolveProcedureInput{
		ProcedureName: "핑크주사",
		Price:         150000,
		HospitalID:    "hosp-1",
		SourceURL:     "https://example.com/price",
	}

	first, err := f.service.Resolve(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodNewCandidate, first.Method)
	assert.True(t, first.IsNew)
	assert.True(t, first.IsCandidate)
	assert.Equal(t, entities.IDKindCandidate, first.ProcedureID.Kind)

	second, err := f.service.Resolve(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodCandidate, second.Method)
	assert.False(t, second.IsNew)
	assert.True(t, second.IsCandidate)
	assert.Equal(t, first.ProcedureID, second.ProcedureID)

	candidate, err := f.candidates.GetByID(ctx, first.ProcedureID.Value)
	require.NoError(t, err)
	assert.Equal(t, 2, candidate.CaseCount)

	samples, err := f.candidates.ListSamples(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	// Exactly one audit row, written on first sighting only.
	require.Len(t, f.collected.records, 1)
	assert.Equal(t, "핑크주사", f.collected.records[0].RawName)
	assert.Equal(t, "hosp-1", f.collected.records[0].HospitalID)
}

func TestResolve_ApprovedCandidateResolvesThroughLink(t *testing.T) {
	f := newResolutionFixture()
	ctx := context.Background()

	now := time.Now()
	f.candidates.Create(ctx, &entities.MappingCandidate{
		ID:             "cand-1",
		RawName:        "물광주사",
		NormalizedName: "물광주사",
		Status:         entities.CandidateStatusApproved,
		CaseCount:      6,
		FirstSeenAt:    now.Add(-10 * 24 * time.Hour),
		LastSeenAt:     now,
	}, 0)
	f.candidates.LinkProcedure(ctx, "cand-1", "proc-glow")

	result, err := f.service.Resolve(ctx, ResolveProcedureInput{ProcedureName: "물광주사"})

	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodAlias, result.Method)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, "proc-glow", result.ProcedureID.Value)
	assert.Equal(t, entities.IDKindProcedure, result.ProcedureID.Kind)
}

func TestResolve_RejectedCandidateStartsFresh(t *testing.T) {
	f := newResolutionFixture()
	ctx := context.Background()

	f.candidates.Create(ctx, &entities.MappingCandidate{
		ID:             "cand-old",
		RawName:        "턱보톡스",
		NormalizedName: "턱보톡스",
		Status:         entities.CandidateStatusRejected,
		FirstSeenAt:    time.Now(),
	}, 0)

	result, err := f.service.Resolve(ctx, ResolveProcedureInput{ProcedureName: "턱보톡스"})

	require.NoError(t, err)
	assert.Equal(t, ResolutionMethodNewCandidate, result.Method)
	assert.NotEqual(t, "cand-old", result.ProcedureID.Value)
}
