package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// regionGazetteer maps district tokens found in URLs, domains or free text to
// a region label. Tokens are matched case-insensitively; Hangul tokens match
// as-is. First match wins, so more specific districts come before cities.
var regionGazetteer = []struct {
	token  string
	region string
}{
	{"강남", "강남"},
	{"gangnam", "강남"},
	{"서초", "서초"},
	{"seocho", "서초"},
	{"송파", "송파"},
	{"songpa", "송파"},
	{"신사", "강남"},
	{"sinsa", "강남"},
	{"압구정", "강남"},
	{"apgujeong", "강남"},
	{"청담", "강남"},
	{"cheongdam", "강남"},
	{"홍대", "마포"},
	{"hongdae", "마포"},
	{"마포", "마포"},
	{"mapo", "마포"},
	{"종로", "종로"},
	{"jongno", "종로"},
	{"서울", "서울"},
	{"seoul", "서울"},
	{"부산", "부산"},
	{"busan", "부산"},
	{"대구", "대구"},
	{"daegu", "대구"},
	{"인천", "인천"},
	{"incheon", "인천"},
	{"광주", "광주"},
	{"gwangju", "광주"},
	{"대전", "대전"},
	{"daejeon", "대전"},
	{"울산", "울산"},
	{"ulsan", "울산"},
	{"제주", "제주"},
	{"jeju", "제주"},
}

// ResolveHospitalInput identifies a hospital by any combination of id, name,
// domain and crawl source URL.
type ResolveHospitalInput struct {
	HospitalID     string
	HospitalName   string
	HospitalDomain string
	HospitalRegion string
	SourceURL      string
}

// HospitalResolution is the outcome of a hospital lookup. HospitalID is empty
// when the input carried no identity at all.
type HospitalResolution struct {
	HospitalID string
	IsNew      bool
}

// HospitalResolutionService resolves or auto-creates hospital rows from
// crawled identity fragments. Lookup order is id, then exact domain, then
// exact name; anything unmatched with at least a name or domain is created.
// No fuzzy name matching is done, so near-miss variants create separate rows.
type HospitalResolutionService struct {
	hospitalRepo repositories.HospitalRepository
}

// NewHospitalResolutionService creates a new hospital resolution service
func NewHospitalResolutionService(hospitalRepo repositories.HospitalRepository) *HospitalResolutionService {
	return &HospitalResolutionService{
		hospitalRepo: hospitalRepo,
	}
}

// Resolve looks up or creates the hospital described by the input.
func (s *HospitalResolutionService) Resolve(ctx context.Context, input ResolveHospitalInput) (*HospitalResolution, error) {
	if input.HospitalID != "" {
		hospital, err := s.hospitalRepo.GetByID(ctx, input.HospitalID)
		if err == nil {
			return &HospitalResolution{HospitalID: hospital.ID}, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}

	domain := input.HospitalDomain
	if domain == "" {
		domain = domainFromURL(input.SourceURL)
	}

	if domain != "" {
		hospital, err := s.hospitalRepo.GetByDomain(ctx, domain)
		if err == nil {
			return &HospitalResolution{HospitalID: hospital.ID}, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}

	if input.HospitalName != "" {
		hospital, err := s.hospitalRepo.GetByName(ctx, input.HospitalName)
		if err == nil {
			return &HospitalResolution{HospitalID: hospital.ID}, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}

	if input.HospitalName == "" && domain == "" {
		return &HospitalResolution{}, nil
	}

	region := input.HospitalRegion
	if region == "" {
		region = InferRegion(input.SourceURL + " " + domain + " " + input.HospitalName)
	}

	now := time.Now()
	hospital := &entities.Hospital{
		ID:        uuid.New().String(),
		Name:      input.HospitalName,
		Domain:    domain,
		Region:    region,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("hospital_id", hospital.ID).
		Str("domain", domain).
		Str("region", region).
		Msg("New hospital created")

	return &HospitalResolution{HospitalID: hospital.ID, IsNew: true}, nil
}

// InferRegion scans free text for a known district token and returns its
// region label, or empty when nothing matches.
func InferRegion(text string) string {
	lowered := strings.ToLower(text)
	for _, entry := range regionGazetteer {
		if strings.Contains(lowered, entry.token) {
			return entry.region
		}
	}
	return ""
}

func domainFromURL(sourceURL string) string {
	if sourceURL == "" {
		return ""
	}
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
