package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTrackingLinkServiceTest(t *testing.T) (*TrackingLinkService, *models.Funnel, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	err = db.AutoMigrate(
		&models.Funnel{},
		&models.TrackingLink{},
		&models.LinkClick{},
		&models.ConversionEvent{},
		&models.AffiliateUser{},
	)
	if err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	funnel := &models.Funnel{
		Name:         "Bybit",
		Slug:         "bybit-welcome",
		Heading:      "heading",
		AffiliateURL: "https://partner.example.com/ref",
		Platform:     "bybit",
		IsActive:     true,
	}
	if err := db.Create(funnel).Error; err != nil {
		t.Fatalf("create funnel failed: %v", err)
	}

	svc := NewTrackingLinkService(
		repository.NewTrackingLinkRepository(db),
		repository.NewFunnelRepository(db),
		repository.NewClickRepository(db),
	)
	return svc, funnel, db
}

func TestCreateTrackingLinkGeneratesSlugAndShortCode(t *testing.T) {
	svc, funnel, _ := setupTrackingLinkServiceTest(t)

	link, err := svc.Create(TrackingLinkCreateInput{
		FunnelID: funnel.ID,
		Name:     "TikTok 投放",
		Source:   "TikTok",
	})
	if err != nil {
		t.Fatalf("create tracking link failed: %v", err)
	}
	if !strings.HasPrefix(link.Slug, "tiktok-") {
		t.Fatalf("expected slug with source prefix, got %q", link.Slug)
	}
	if len(link.Slug) != len("tiktok-")+slugSuffixLength {
		t.Fatalf("unexpected slug length: %q", link.Slug)
	}
	if len(link.ShortCode) != shortCodeLength {
		t.Fatalf("expected short code length %d, got %q", shortCodeLength, link.ShortCode)
	}
	if !link.IsActive {
		t.Fatalf("expected link active by default")
	}
}

func TestCreateTrackingLinkValidation(t *testing.T) {
	svc, funnel, _ := setupTrackingLinkServiceTest(t)

	if _, err := svc.Create(TrackingLinkCreateInput{FunnelID: funnel.ID, Source: "tiktok"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}
	if _, err := svc.Create(TrackingLinkCreateInput{FunnelID: funnel.ID, Name: "n"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing source, got %v", err)
	}
	if _, err := svc.Create(TrackingLinkCreateInput{FunnelID: 9999, Name: "n", Source: "s"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown funnel, got %v", err)
	}
}

func TestCreateTrackingLinkConflicts(t *testing.T) {
	svc, funnel, _ := setupTrackingLinkServiceTest(t)

	first, err := svc.Create(TrackingLinkCreateInput{
		FunnelID:  funnel.ID,
		Name:      "first",
		Source:    "tiktok",
		Slug:      "promo",
		ShortCode: "a1b2c3",
	})
	if err != nil {
		t.Fatalf("create first link failed: %v", err)
	}
	if first.Slug != "promo" || first.ShortCode != "a1b2c3" {
		t.Fatalf("expected provided slug/short code kept, got %q/%q", first.Slug, first.ShortCode)
	}

	if _, err := svc.Create(TrackingLinkCreateInput{
		FunnelID: funnel.ID,
		Name:     "dup slug",
		Source:   "tiktok",
		Slug:     "Promo",
	}); err != ErrSlugExists {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}

	if _, err := svc.Create(TrackingLinkCreateInput{
		FunnelID:  funnel.ID,
		Name:      "dup code",
		Source:    "tiktok",
		ShortCode: "a1b2c3",
	}); err != ErrShortCodeExists {
		t.Fatalf("expected ErrShortCodeExists, got %v", err)
	}
}

func TestUpdateTrackingLink(t *testing.T) {
	svc, funnel, _ := setupTrackingLinkServiceTest(t)

	expiresAt := time.Now().Add(24 * time.Hour)
	link, err := svc.Create(TrackingLinkCreateInput{
		FunnelID:  funnel.ID,
		Name:      "origin",
		Source:    "tiktok",
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	newName := "renamed"
	newSlug := "New Slug"
	updated, err := svc.Update(link.ID, TrackingLinkUpdateInput{
		Name: &newName,
		Slug: &newSlug,
	})
	if err != nil {
		t.Fatalf("update link failed: %v", err)
	}
	if updated.Name != "renamed" || updated.Slug != "new-slug" {
		t.Fatalf("unexpected update result: %q/%q", updated.Name, updated.Slug)
	}
	if updated.ExpiresAt == nil {
		t.Fatalf("expected expires_at untouched")
	}

	updated, err = svc.Update(link.ID, TrackingLinkUpdateInput{ClearExpiresAt: true})
	if err != nil {
		t.Fatalf("clear expires_at failed: %v", err)
	}
	if updated.ExpiresAt != nil {
		t.Fatalf("expected expires_at cleared")
	}

	if _, err := svc.Update(9999, TrackingLinkUpdateInput{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown link, got %v", err)
	}
}

func TestToggleTrackingLink(t *testing.T) {
	svc, funnel, _ := setupTrackingLinkServiceTest(t)

	link, err := svc.Create(TrackingLinkCreateInput{FunnelID: funnel.ID, Name: "n", Source: "tiktok"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	toggled, err := svc.Toggle(link.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected link deactivated after toggle")
	}
	toggled, err = svc.Toggle(link.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if !toggled.IsActive {
		t.Fatalf("expected link reactivated after second toggle")
	}
}

func TestBulkDeleteTrackingLinksCleansUp(t *testing.T) {
	svc, funnel, db := setupTrackingLinkServiceTest(t)

	link, err := svc.Create(TrackingLinkCreateInput{FunnelID: funnel.ID, Name: "n", Source: "tiktok"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}

	click := &models.LinkClick{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s1", ClickedAt: time.Now()}
	if err := db.Create(click).Error; err != nil {
		t.Fatalf("create click failed: %v", err)
	}
	event := &models.ConversionEvent{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s1", EventType: "click", EventTimestamp: time.Now()}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("create event failed: %v", err)
	}
	linkID := link.ID
	user := &models.AffiliateUser{UID: "bybit-1001", Platform: "bybit", TrackingLinkID: &linkID}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create affiliate user failed: %v", err)
	}

	deleted, err := svc.BulkDelete([]uint{link.ID, 0})
	if err != nil {
		t.Fatalf("bulk delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	var clickCount, eventCount int64
	if err := db.Model(&models.LinkClick{}).Where("tracking_link_id = ?", link.ID).Count(&clickCount).Error; err != nil {
		t.Fatalf("count clicks failed: %v", err)
	}
	if err := db.Model(&models.ConversionEvent{}).Where("tracking_link_id = ?", link.ID).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if clickCount != 0 || eventCount != 0 {
		t.Fatalf("expected click/event rows removed, got %d/%d", clickCount, eventCount)
	}

	var reloaded models.AffiliateUser
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload affiliate user failed: %v", err)
	}
	if reloaded.TrackingLinkID != nil {
		t.Fatalf("expected affiliate user attribution cleared")
	}

	if _, err := svc.BulkDelete([]uint{0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty ids, got %v", err)
	}
}
