package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/medisight/clinicpricewatch/internal/adapters/database"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	"github.com/medisight/clinicpricewatch/pkg/config"
	"github.com/medisight/clinicpricewatch/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	procedureRepo := database.NewProcedureAdapter(pgClient)
	aliasRepo := database.NewAliasAdapter(pgClient)
	packageRepo := database.NewPackageAdapter(pgClient)
	hospitalRepo := database.NewHospitalAdapter(pgClient)

	ctx := context.Background()
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				price_change_alerts,
				price_history,
				price_records,
				collected_procedure_names,
				candidate_price_samples,
				mapping_candidates,
				procedure_aliases,
				procedure_packages,
				procedures,
				hospitals,
				competitor_settings,
				price_watch_settings,
				mapping_approval_settings
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed Procedures (common Korean aesthetic clinic treatments)
	procedures := []entities.Procedure{
		{ID: uuid.New().String(), Name: "Ulthera", KoreanName: "울쎄라", Category: "Lifting", Manufacturer: "Merz", EquipmentType: "HIFU", IsVerified: true, VerificationSource: "manufacturer_catalog", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Shurink", KoreanName: "슈링크", Category: "Lifting", Manufacturer: "Classys", EquipmentType: "HIFU", IsVerified: true, VerificationSource: "manufacturer_catalog", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Thermage FLX", KoreanName: "써마지 FLX", Category: "Lifting", Manufacturer: "Solta", EquipmentType: "RF", IsVerified: true, VerificationSource: "manufacturer_catalog", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "InMode", KoreanName: "인모드", Category: "Lifting", Manufacturer: "InMode", EquipmentType: "RF", IsVerified: true, VerificationSource: "manufacturer_catalog", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Botox (Forehead)", KoreanName: "보톡스 이마", Category: "Toxin", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Rejuran Healer", KoreanName: "리쥬란 힐러", Category: "Skin Booster", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Pico Toning", KoreanName: "피코토닝", Category: "Laser", EquipmentType: "Laser", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for i := range procedures {
		procedures[i].NormalizedName = utils.NormalizeProcedureName(procedures[i].KoreanName)
		p := procedures[i]
		if err := procedureRepo.Create(ctx, &p); err != nil {
			log.Printf("Failed to create procedure %s: %v", p.Name, err)
		}
	}

	// 2. Seed Aliases (marketing names seen on clinic price pages)
	aliases := []struct {
		procedureIdx int
		name         string
		confidence   int
	}{
		{0, "울쎄라 리프팅", 95},
		{0, "Ulthera Lifting 300샷", 90},
		{1, "슈링크 유니버스", 95},
		{1, "슈링크 300샷 이벤트", 85},
		{2, "써마지", 90},
		{4, "이마 보톡스", 95},
		{5, "리쥬란", 90},
		{6, "피코 토닝", 95},
	}

	for _, a := range aliases {
		alias := &entities.ProcedureAlias{
			ID:             uuid.New().String(),
			ProcedureID:    procedures[a.procedureIdx].ID,
			AliasName:      a.name,
			NormalizedName: utils.NormalizeProcedureName(a.name),
			Confidence:     a.confidence,
			Source:         "seed",
			CreatedAt:      time.Now(),
		}
		if err := aliasRepo.Create(ctx, alias); err != nil {
			log.Printf("Failed to create alias %s: %v", a.name, err)
		}
	}

	// 3. Seed Packages (combo treatments sold as one line item)
	packages := []struct {
		name         string
		procedureIdx []int
	}{
		{"울쎄라+슈링크 더블 리프팅", []int{0, 1}},
		{"써마지+보톡스 패키지", []int{2, 4}},
	}

	for _, p := range packages {
		ids := make([]string, 0, len(p.procedureIdx))
		for _, idx := range p.procedureIdx {
			ids = append(ids, procedures[idx].ID)
		}
		pkg := &entities.ProcedurePackage{
			ID:             uuid.New().String(),
			Name:           p.name,
			NormalizedName: utils.NormalizeProcedureName(p.name),
			ProcedureIDs:   ids,
			Category:       "Lifting",
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if err := packageRepo.Create(ctx, pkg); err != nil {
			log.Printf("Failed to create package %s: %v", p.name, err)
		}
	}

	// 4. Seed Hospitals
	hospitals := []entities.Hospital{
		{ID: uuid.New().String(), Name: "글로우 피부과", Domain: "glowskin.co.kr", Region: "강남", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "리더스 클리닉", Domain: "leadersclinic.com", Region: "서초", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "미소 의원", Domain: "misoclinic.kr", Region: "마포", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "더블유 피부과", Domain: "wskin.co.kr", Region: "강남", CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for i := range hospitals {
		h := hospitals[i]
		if err := hospitalRepo.Create(ctx, &h); err != nil {
			log.Printf("Failed to create hospital %s: %v", h.Name, err)
		}
	}

	// 5. Seed settings rows. The settings repository is read-only in the
	// application, so write them directly.
	if _, err := db.ExecContext(ctx, `
		INSERT INTO price_watch_settings (alert_threshold_percent, urgent_threshold_percent, updated_at)
		VALUES (10, 20, NOW())
	`); err != nil {
		log.Printf("Failed to seed price watch settings: %v", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO mapping_approval_settings (min_cases, min_days, updated_at)
		VALUES (5, 7, NOW())
	`); err != nil {
		log.Printf("Failed to seed mapping approval settings: %v", err)
	}

	// First hospital explicitly watches the second; third opted into auto
	// detection and hears about every competitor.
	if _, err := db.ExecContext(ctx, `
		INSERT INTO competitor_settings (hospital_id, competitor_ids, auto_detect, updated_at)
		VALUES ($1, $2, false, NOW())
		ON CONFLICT (hospital_id) DO NOTHING
	`, hospitals[0].ID, pq.Array([]string{hospitals[1].ID})); err != nil {
		log.Printf("Failed to seed competitor settings for %s: %v", hospitals[0].Name, err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO competitor_settings (hospital_id, competitor_ids, auto_detect, updated_at)
		VALUES ($1, '{}', true, NOW())
		ON CONFLICT (hospital_id) DO NOTHING
	`, hospitals[2].ID); err != nil {
		log.Printf("Failed to seed competitor settings for %s: %v", hospitals[2].Name, err)
	}

	log.Println("Seeding completed successfully")
}
