package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// In-memory repository fakes. They mirror the adapter contracts, including
// NotFound semantics, so services can be exercised end to end without a
// database.

type fakeProcedureRepo struct {
	mu         sync.Mutex
	procedures map[string]*entities.Procedure
	statCalls  []string
}

func newFakeProcedureRepo() *fakeProcedureRepo {
	return &fakeProcedureRepo{procedures: make(map[string]*entities.Procedure)}
}

func (r *fakeProcedureRepo) Create(ctx context.Context, p *entities.Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procedures[p.ID] = p
	return nil
}

func (r *fakeProcedureRepo) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.procedures[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError("procedure not found")
}

func (r *fakeProcedureRepo) GetByName(ctx context.Context, rawName, normalizedName string) (*entities.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.procedures {
		if p.Name == rawName || p.KoreanName == rawName || p.NormalizedName == normalizedName {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("procedure not found")
}

func (r *fakeProcedureRepo) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Procedure
	for _, p := range r.procedures {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProcedureRepo) UpdateStats(ctx context.Context, id string, price float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statCalls = append(r.statCalls, id)
	return nil
}

type fakeAliasRepo struct {
	mu      sync.Mutex
	aliases []*entities.ProcedureAlias
}

func newFakeAliasRepo() *fakeAliasRepo { return &fakeAliasRepo{} }

func (r *fakeAliasRepo) Create(ctx context.Context, alias *entities.ProcedureAlias) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases = append(r.aliases, alias)
	return nil
}

func (r *fakeAliasRepo) FindBestMatch(ctx context.Context, rawName, normalizedName string) (*entities.ProcedureAlias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *entities.ProcedureAlias
	for _, a := range r.aliases {
		if a.AliasName != rawName && a.NormalizedName != normalizedName {
			continue
		}
		if best == nil || a.Confidence > best.Confidence {
			best = a
		}
	}
	if best == nil {
		return nil, apperrors.NewNotFoundError("alias not found")
	}
	return best, nil
}

func (r *fakeAliasRepo) FindByProcedure(ctx context.Context, procedureID string) ([]*entities.ProcedureAlias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.ProcedureAlias
	for _, a := range r.aliases {
		if a.ProcedureID == procedureID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePackageRepo struct {
	mu       sync.Mutex
	packages []*entities.ProcedurePackage
}

func newFakePackageRepo() *fakePackageRepo { return &fakePackageRepo{} }

func (r *fakePackageRepo) Create(ctx context.Context, pkg *entities.ProcedurePackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages = append(r.packages, pkg)
	return nil
}

func (r *fakePackageRepo) GetByName(ctx context.Context, rawName, normalizedName string) (*entities.ProcedurePackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.packages {
		if p.Name == rawName || p.NormalizedName == normalizedName {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("package not found")
}

type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates map[string]*entities.MappingCandidate
	samples    map[string][]*entities.CandidatePriceSample
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{
		candidates: make(map[string]*entities.MappingCandidate),
		samples:    make(map[string][]*entities.CandidatePriceSample),
	}
}

func (r *fakeCandidateRepo) Create(ctx context.Context, c *entities.MappingCandidate, firstPrice float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.candidates[c.ID] = &clone
	if firstPrice > 0 {
		r.samples[c.ID] = append(r.samples[c.ID], &entities.CandidatePriceSample{
			CandidateID: c.ID,
			Price:       firstPrice,
			ObservedAt:  c.FirstSeenAt,
		})
	}
	return nil
}

func (r *fakeCandidateRepo) GetByID(ctx context.Context, id string) (*entities.MappingCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.candidates[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperrors.NewNotFoundError("candidate not found")
}

func (r *fakeCandidateRepo) GetByNormalizedName(ctx context.Context, normalizedName string) (*entities.MappingCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.candidates {
		if c.NormalizedName == normalizedName && c.Status != entities.CandidateStatusRejected {
			clone := *c
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("candidate not found")
}

func (r *fakeCandidateRepo) RecordSighting(ctx context.Context, id string, price float64, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return apperrors.NewNotFoundError("candidate not found")
	}
	c.CaseCount++
	c.PriceTotal += price
	c.AvgPrice = c.PriceTotal / float64(c.CaseCount)
	if price < c.MinPrice || c.MinPrice == 0 {
		c.MinPrice = price
	}
	if price > c.MaxPrice {
		c.MaxPrice = price
	}
	c.LastSeenAt = seenAt
	if price > 0 {
		r.samples[id] = append(r.samples[id], &entities.CandidatePriceSample{
			CandidateID: id,
			Price:       price,
			ObservedAt:  seenAt,
		})
	}
	return nil
}

func (r *fakeCandidateRepo) SetThresholdFlags(ctx context.Context, id string, meetsCaseThreshold, meetsTimeThreshold bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return apperrors.NewNotFoundError("candidate not found")
	}
	c.MeetsCaseThreshold = meetsCaseThreshold
	c.MeetsTimeThreshold = meetsTimeThreshold
	return nil
}

func (r *fakeCandidateRepo) UpdateStatus(ctx context.Context, id string, status entities.CandidateStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return apperrors.NewNotFoundError("candidate not found")
	}
	c.Status = status
	return nil
}

func (r *fakeCandidateRepo) LinkProcedure(ctx context.Context, id string, procedureID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return apperrors.NewNotFoundError("candidate not found")
	}
	c.LinkedProcedureID = &procedureID
	return nil
}

func (r *fakeCandidateRepo) ListByStatus(ctx context.Context, status entities.CandidateStatus, limit, offset int) ([]*entities.MappingCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.MappingCandidate
	for _, c := range r.candidates {
		if c.Status == status {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeCandidateRepo) ListSamples(ctx context.Context, id string) ([]*entities.CandidatePriceSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples[id], nil
}

type fakeCollectedRepo struct {
	mu      sync.Mutex
	records []*entities.CollectedProcedureName
}

func newFakeCollectedRepo() *fakeCollectedRepo { return &fakeCollectedRepo{} }

func (r *fakeCollectedRepo) Record(ctx context.Context, collected *entities.CollectedProcedureName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, collected)
	return nil
}

type fakeHospitalRepo struct {
	mu        sync.Mutex
	hospitals map[string]*entities.Hospital
}

func newFakeHospitalRepo() *fakeHospitalRepo {
	return &fakeHospitalRepo{hospitals: make(map[string]*entities.Hospital)}
}

func (r *fakeHospitalRepo) Create(ctx context.Context, h *entities.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hospitals[h.ID] = h
	return nil
}

func (r *fakeHospitalRepo) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hospitals[id]; ok {
		return h, nil
	}
	return nil, apperrors.NewNotFoundError("hospital not found")
}

func (r *fakeHospitalRepo) GetByDomain(ctx context.Context, domain string) (*entities.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hospitals {
		if h.Domain == domain {
			return h, nil
		}
	}
	return nil, apperrors.NewNotFoundError("hospital not found")
}

func (r *fakeHospitalRepo) GetByName(ctx context.Context, name string) (*entities.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hospitals {
		if h.Name == name {
			return h, nil
		}
	}
	return nil, apperrors.NewNotFoundError("hospital not found")
}

func priceKey(hospitalID, procedureID, targetAreaCode string) string {
	return hospitalID + "|" + procedureID + "|" + targetAreaCode
}

type fakeHistoryRepo struct {
	mu   sync.Mutex
	rows map[string][]*entities.PriceHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{rows: make(map[string][]*entities.PriceHistory)}
}

func (r *fakeHistoryRepo) Insert(ctx context.Context, row *entities.PriceHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := priceKey(row.HospitalID, row.ProcedureID, row.TargetAreaCode)
	r.rows[key] = append(r.rows[key], row)
	return nil
}

func (r *fakeHistoryRepo) GetLatest(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.rows[priceKey(hospitalID, procedureID, targetAreaCode)]
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("no price history")
	}
	return rows[len(rows)-1], nil
}

func (r *fakeHistoryRepo) ListByKey(ctx context.Context, hospitalID, procedureID, targetAreaCode string, limit int) ([]*entities.PriceHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.rows[priceKey(hospitalID, procedureID, targetAreaCode)]
	out := make([]*entities.PriceHistory, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[string]*entities.PriceRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[string]*entities.PriceRecord)}
}

func (r *fakeRecordRepo) Upsert(ctx context.Context, record *entities.PriceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[priceKey(record.HospitalID, record.ProcedureID, record.TargetAreaCode)] = record
	return nil
}

func (r *fakeRecordRepo) Get(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.records[priceKey(hospitalID, procedureID, targetAreaCode)]; ok {
		return record, nil
	}
	return nil, apperrors.NewNotFoundError("no price record")
}

type fakeAlertRepo struct {
	mu      sync.Mutex
	alerts  []*entities.PriceChangeAlert
	failFor map[string]bool
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{failFor: make(map[string]bool)}
}

func (r *fakeAlertRepo) Insert(ctx context.Context, alert *entities.PriceChangeAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[alert.SubscriberHospitalID] {
		return apperrors.NewInternalError("insert failed", fmt.Errorf("injected failure"))
	}
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *fakeAlertRepo) ListBySubscriber(ctx context.Context, hospitalID string, unreadOnly bool, limit, offset int) ([]*entities.PriceChangeAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.PriceChangeAlert
	for _, a := range r.alerts {
		if a.SubscriberHospitalID != hospitalID {
			continue
		}
		if unreadOnly && a.IsRead {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAlertRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ID == id {
			a.IsRead = true
			return nil
		}
	}
	return apperrors.NewNotFoundError("alert not found")
}

func (r *fakeAlertRepo) all() []*entities.PriceChangeAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.PriceChangeAlert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

type fakeSettingsRepo struct {
	mu          sync.Mutex
	approval    *entities.MappingApprovalSettings
	watch       *entities.PriceWatchSettings
	competitors map[string]*entities.CompetitorSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		approval:    entities.DefaultMappingApprovalSettings(),
		watch:       entities.DefaultPriceWatchSettings(),
		competitors: make(map[string]*entities.CompetitorSettings),
	}
}

func (r *fakeSettingsRepo) GetMappingApprovalSettings(ctx context.Context) (*entities.MappingApprovalSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approval, nil
}

func (r *fakeSettingsRepo) GetPriceWatchSettings(ctx context.Context) (*entities.PriceWatchSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watch, nil
}

func (r *fakeSettingsRepo) GetCompetitorSettings(ctx context.Context, hospitalID string) (*entities.CompetitorSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.competitors[hospitalID]; ok {
		return s, nil
	}
	return nil, apperrors.NewNotFoundError("no competitor settings")
}

func (r *fakeSettingsRepo) ListSubscribers(ctx context.Context, competitorHospitalID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for hospitalID, s := range r.competitors {
		if hospitalID == competitorHospitalID {
			continue
		}
		if s.AutoDetect {
			out = append(out, hospitalID)
			continue
		}
		for _, id := range s.CompetitorIDs {
			if id == competitorHospitalID {
				out = append(out, hospitalID)
				break
			}
		}
	}
	return out, nil
}

type fakeEventBus struct {
	mu     sync.Mutex
	events []*entities.AlertEvent
}

func newFakeEventBus() *fakeEventBus { return &fakeEventBus{} }

func (b *fakeEventBus) Publish(ctx context.Context, channel string, event *entities.AlertEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AlertEvent, error) {
	ch := make(chan *entities.AlertEvent)
	close(ch)
	return ch, nil
}

func (b *fakeEventBus) Close() error { return nil }

func (b *fakeEventBus) published() []*entities.AlertEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entities.AlertEvent, len(b.events))
	copy(out, b.events)
	return out
}
