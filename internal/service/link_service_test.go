package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupLinkServiceTest(t *testing.T) (*LinkService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Funnel{}, &models.TrackingLink{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewLinkService(repository.NewTrackingLinkRepository(db)), db
}

func createFunnelWithLink(t *testing.T, db *gorm.DB, funnelSlug, linkSlug, shortCode string) (*models.Funnel, *models.TrackingLink) {
	t.Helper()

	funnel := &models.Funnel{
		Name:         funnelSlug,
		Slug:         funnelSlug,
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
		Name:      linkSlug,
		Source:    "tiktok",
		Slug:      linkSlug,
		ShortCode: shortCode,
		IsActive:  true,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("create tracking link failed: %v", err)
	}
	return funnel, link
}

func TestResolveShortCode(t *testing.T) {
	svc, db := setupLinkServiceTest(t)
	_, link := createFunnelWithLink(t, db, "bybit-welcome", "tiktok-k3f9", "a1b2c3")

	resolved, err := svc.ResolveShortCode("a1b2c3")
	if err != nil {
		t.Fatalf("resolve short code failed: %v", err)
	}
	if resolved.ID != link.ID {
		t.Fatalf("expected link id=%d, got id=%d", link.ID, resolved.ID)
	}
	if resolved.Funnel == nil {
		t.Fatalf("expected funnel preloaded")
	}

	if _, err := svc.ResolveShortCode("zzzzzz"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
	if _, err := svc.ResolveShortCode("  "); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for blank code, got %v", err)
	}
}

func TestResolveSlugPriority(t *testing.T) {
	svc, db := setupLinkServiceTest(t)
	_, scoped := createFunnelWithLink(t, db, "bybit-welcome", "promo", "a1b2c3")
	_, bare := createFunnelWithLink(t, db, "okx-cashback", "telegram-m8n1", "d4e5f6")

	// 双段路径按 漏斗 slug + 链接 slug 解析
	resolved, err := svc.ResolveSlug("bybit-welcome", "promo")
	if err != nil {
		t.Fatalf("resolve scoped slug failed: %v", err)
	}
	if resolved.ID != scoped.ID {
		t.Fatalf("expected link id=%d, got id=%d", scoped.ID, resolved.ID)
	}

	// 双段路径不回退到裸 slug
	if _, err := svc.ResolveSlug("bybit-welcome", "telegram-m8n1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for mismatched funnel scope, got %v", err)
	}

	// 单段路径按裸链接 slug 解析
	resolved, err = svc.ResolveSlug("telegram-m8n1", "")
	if err != nil {
		t.Fatalf("resolve bare slug failed: %v", err)
	}
	if resolved.ID != bare.ID {
		t.Fatalf("expected link id=%d, got id=%d", bare.ID, resolved.ID)
	}
}

func TestResolveSlugReservedSegment(t *testing.T) {
	svc, _ := setupLinkServiceTest(t)

	for _, segment := range []string{"api", "l", "healthz", "health", "uploads", "API"} {
		if _, err := svc.ResolveSlug(segment, ""); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound for reserved segment %q, got %v", segment, err)
		}
	}
}

func TestResolveSlugInactiveAndExpired(t *testing.T) {
	svc, db := setupLinkServiceTest(t)
	funnel, link := createFunnelWithLink(t, db, "bybit-welcome", "tiktok-k3f9", "a1b2c3")

	// 链接停用
	if err := db.Model(link).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate link failed: %v", err)
	}
	if _, err := svc.ResolveSlug("tiktok-k3f9", ""); err != ErrLinkInactive {
		t.Fatalf("expected ErrLinkInactive, got %v", err)
	}

	// 漏斗停用优先于过期判断
	if err := db.Model(link).Update("is_active", true).Error; err != nil {
		t.Fatalf("reactivate link failed: %v", err)
	}
	if err := db.Model(funnel).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate funnel failed: %v", err)
	}
	if _, err := svc.ResolveSlug("tiktok-k3f9", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for inactive funnel, got %v", err)
	}

	// 过期链接单独上报
	if err := db.Model(funnel).Update("is_active", true).Error; err != nil {
		t.Fatalf("reactivate funnel failed: %v", err)
	}
	expiredAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := db.Model(link).Update("expires_at", expiredAt).Error; err != nil {
		t.Fatalf("set expires_at failed: %v", err)
	}
	originalNow := nowFunc
	nowFunc = func() time.Time { return expiredAt.Add(time.Hour) }
	defer func() { nowFunc = originalNow }()

	if _, err := svc.ResolveSlug("tiktok-k3f9", ""); err != ErrLinkExpired {
		t.Fatalf("expected ErrLinkExpired, got %v", err)
	}
	if _, err := svc.ResolveShortCode("a1b2c3"); err != ErrLinkExpired {
		t.Fatalf("expected ErrLinkExpired via short code, got %v", err)
	}
}

func TestRedirectTargetPrefersBaseURL(t *testing.T) {
	svc, _ := setupLinkServiceTest(t)

	link := &models.TrackingLink{
		Funnel: &models.Funnel{
			AffiliateURL: "https://partner.example.com/ref",
			BaseURL:      "https://landing.example.com/go",
		},
	}
	if target := svc.RedirectTarget(link); target != "https://landing.example.com/go" {
		t.Fatalf("expected base_url target, got %q", target)
	}

	link.Funnel.BaseURL = "  "
	if target := svc.RedirectTarget(link); target != "https://partner.example.com/ref" {
		t.Fatalf("expected affiliate_url fallback, got %q", target)
	}

	if target := svc.RedirectTarget(nil); target != "" {
		t.Fatalf("expected empty target for nil link, got %q", target)
	}
}
