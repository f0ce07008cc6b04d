//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ConversionEvent{},
		&models.LinkClick{},
		&models.AffiliateUser{},
		&models.TrackingLink{},
		&models.Funnel{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Funnel{},
		&models.TrackingLink{},
		&models.LinkClick{},
		&models.ConversionEvent{},
		&models.AffiliateUser{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCaseInsensitiveSearchRepositories(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	funnel := &models.Funnel{
		Name:         "Bybit Welcome",
		Slug:         "pg-bybit-welcome",
		Heading:      "heading",
		AffiliateURL: "https://partner.example.com/ref",
		Platform:     "bybit",
		IsActive:     true,
	}
	if err := db.Create(funnel).Error; err != nil {
		t.Fatalf("create funnel failed: %v", err)
	}

	linkRepo := NewTrackingLinkRepository(db)
	link := &models.TrackingLink{
		FunnelID:  funnel.ID,
		Name:      "TikTok Spring Push",
		Source:    "tiktok",
		Slug:      "pg-tiktok-spring",
		ShortCode: "pg1a2b",
		IsActive:  true,
	}
	if err := linkRepo.Create(link); err != nil {
		t.Fatalf("create tracking link failed: %v", err)
	}

	// postgres 使用 ILIKE，大小写不敏感
	linkRows, linkTotal, err := linkRepo.List(TrackingLinkListFilter{
		Page:   1,
		Search: "tiktok spring",
	})
	if err != nil {
		t.Fatalf("tracking link search failed: %v", err)
	}
	if linkTotal != 1 || len(linkRows) != 1 {
		t.Fatalf("tracking link search want 1 got total=%d len=%d", linkTotal, len(linkRows))
	}

	userRepo := NewAffiliateUserRepository(db)
	user := &models.AffiliateUser{
		UID:        "PG-Bybit-9001",
		Platform:   "bybit",
		InviteCode: "COINVO2024",
	}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("create affiliate user failed: %v", err)
	}

	userRows, userTotal, err := userRepo.List(AffiliateUserListFilter{
		Page:   1,
		Search: "pg-bybit",
	})
	if err != nil {
		t.Fatalf("affiliate user search failed: %v", err)
	}
	if userTotal != 1 || len(userRows) != 1 {
		t.Fatalf("affiliate user search want 1 got total=%d len=%d", userTotal, len(userRows))
	}
}

func TestPostgresDashboardQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDashboardRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	funnel := &models.Funnel{
		Name:         "Bybit Welcome",
		Slug:         "pg-dashboard-funnel",
		Heading:      "heading",
		AffiliateURL: "https://partner.example.com/ref",
		Platform:     "bybit",
		IsActive:     true,
	}
	if err := db.Create(funnel).Error; err != nil {
		t.Fatalf("create funnel failed: %v", err)
	}

	link := &models.TrackingLink{
		FunnelID:  funnel.ID,
		Name:      "tiktok",
		Source:    "tiktok",
		Slug:      "pg-dashboard-link",
		ShortCode: "pg3c4d",
		IsActive:  true,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("create tracking link failed: %v", err)
	}

	clicks := []models.LinkClick{
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "pg-s1", DeviceType: "mobile", ClickedAt: now},
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "pg-s2", DeviceType: "desktop", ClickedAt: now},
	}
	for i := range clicks {
		if err := db.Create(&clicks[i]).Error; err != nil {
			t.Fatalf("create click failed: %v", err)
		}
	}

	registeredAt := now
	user := &models.AffiliateUser{
		UID:          "pg-bybit-1001",
		Platform:     "bybit",
		InviteCode:   "COINVO2024",
		RegisterTime: &registeredAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create affiliate user failed: %v", err)
	}

	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)

	sessions, err := repo.CountDistinctSessions(startAt, endAt)
	if err != nil {
		t.Fatalf("count sessions failed: %v", err)
	}
	if sessions != 2 {
		t.Fatalf("sessions want 2 got %d", sessions)
	}

	sources, err := repo.LinkSourceBreakdown(startAt, endAt)
	if err != nil {
		t.Fatalf("link source breakdown failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Source != "tiktok" {
		t.Fatalf("unexpected source breakdown: %+v", sources)
	}

	signups, err := repo.CountSignups("COINVO2024", startAt, endAt)
	if err != nil {
		t.Fatalf("count signups failed: %v", err)
	}
	if signups != 1 {
		t.Fatalf("signups want 1 got %d", signups)
	}
}
