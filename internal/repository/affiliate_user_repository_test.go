package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAffiliateUserRepoTest(t *testing.T) (*GormAffiliateUserRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AffiliateUser{}, &models.TrackingLink{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewAffiliateUserRepository(db), db
}

func TestStampAttributionIdempotent(t *testing.T) {
	repo, db := setupAffiliateUserRepoTest(t)

	unattributed := &models.AffiliateUser{UID: "bybit-1001", Platform: "bybit", SessionID: "session-1"}
	if err := db.Create(unattributed).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	alreadyStamped := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	linkID := uint(7)
	attributed := &models.AffiliateUser{
		UID:             "bybit-1002",
		Platform:        "bybit",
		SessionID:       "session-1",
		TrackingLinkID:  &linkID,
		TrafficSource:   "youtube",
		FunnelClickedAt: &alreadyStamped,
	}
	if err := db.Create(attributed).Error; err != nil {
		t.Fatalf("create attributed user failed: %v", err)
	}

	clickedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	stamped, err := repo.StampAttribution("session-1", 42, "tiktok", clickedAt)
	if err != nil {
		t.Fatalf("stamp attribution failed: %v", err)
	}
	if stamped != 1 {
		t.Fatalf("expected 1 row stamped, got %d", stamped)
	}

	var reloaded models.AffiliateUser
	if err := db.First(&reloaded, unattributed.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.TrackingLinkID == nil || *reloaded.TrackingLinkID != 42 {
		t.Fatalf("expected tracking_link_id=42, got %v", reloaded.TrackingLinkID)
	}
	if reloaded.TrafficSource != "tiktok" {
		t.Fatalf("expected traffic_source stamped, got %q", reloaded.TrafficSource)
	}

	// 已归因记录不被覆盖
	var kept models.AffiliateUser
	if err := db.First(&kept, attributed.ID).Error; err != nil {
		t.Fatalf("reload attributed user failed: %v", err)
	}
	if kept.TrackingLinkID == nil || *kept.TrackingLinkID != 7 || kept.TrafficSource != "youtube" {
		t.Fatalf("expected prior attribution kept, got link=%v source=%q", kept.TrackingLinkID, kept.TrafficSource)
	}

	// 重复执行为幂等操作
	stamped, err = repo.StampAttribution("session-1", 42, "tiktok", clickedAt)
	if err != nil {
		t.Fatalf("repeat stamp failed: %v", err)
	}
	if stamped != 0 {
		t.Fatalf("expected 0 rows on repeat stamp, got %d", stamped)
	}

	// 空会话与零链接直接跳过
	if stamped, err = repo.StampAttribution("", 42, "tiktok", clickedAt); err != nil || stamped != 0 {
		t.Fatalf("expected no-op for empty session, got %d/%v", stamped, err)
	}
	if stamped, err = repo.StampAttribution("session-1", 0, "tiktok", clickedAt); err != nil || stamped != 0 {
		t.Fatalf("expected no-op for zero link id, got %d/%v", stamped, err)
	}
}

func TestAffiliateUserStats(t *testing.T) {
	repo, db := setupAffiliateUserRepoTest(t)

	now := time.Now()
	users := []models.AffiliateUser{
		{UID: "u1", Platform: "bybit", InviteCode: "COINVO2024", RewardStatus: constants.RewardStatusPending},
		{UID: "u2", Platform: "bybit", InviteCode: "COINVO2024", Step2CompletedAt: &now, RewardStatus: constants.RewardStatusPending},
		{UID: "u3", Platform: "okx", InviteCode: "COINVO2024", Step2CompletedAt: &now, Step3CompletedAt: &now, RewardStatus: constants.RewardStatusClaimed},
		{UID: "u4", Platform: "okx", InviteCode: "OTHER", Step2CompletedAt: &now, RewardStatus: constants.RewardStatusPending},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user %s failed: %v", users[i].UID, err)
		}
	}

	stats, err := repo.Stats(AffiliateUserListFilter{InviteCode: "COINVO2024"})
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected total=3, got %d", stats.Total)
	}
	if stats.Step2Completed != 2 {
		t.Fatalf("expected step2=2, got %d", stats.Step2Completed)
	}
	if stats.Step3Completed != 1 {
		t.Fatalf("expected step3=1, got %d", stats.Step3Completed)
	}
	if stats.RewardsClaimed != 1 {
		t.Fatalf("expected rewards=1, got %d", stats.RewardsClaimed)
	}
}

func TestAffiliateUserListFilters(t *testing.T) {
	repo, db := setupAffiliateUserRepoTest(t)

	now := time.Now()
	users := []models.AffiliateUser{
		{UID: "bybit-alpha", Platform: "bybit", InviteCode: "COINVO2024"},
		{UID: "bybit-beta", Platform: "bybit", InviteCode: "COINVO2024", Step2CompletedAt: &now},
		{UID: "okx-gamma", Platform: "okx", InviteCode: "COINVO2024"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user %s failed: %v", users[i].UID, err)
		}
	}

	hasDeposit := true
	list, total, err := repo.List(AffiliateUserListFilter{InviteCode: "COINVO2024", HasDeposit: &hasDeposit})
	if err != nil {
		t.Fatalf("list with deposit filter failed: %v", err)
	}
	if total != 1 || list[0].UID != "bybit-beta" {
		t.Fatalf("expected single deposited user, got total=%d", total)
	}

	list, total, err = repo.List(AffiliateUserListFilter{Platform: "bybit", Search: "alpha"})
	if err != nil {
		t.Fatalf("list with search failed: %v", err)
	}
	if total != 1 || list[0].UID != "bybit-alpha" {
		t.Fatalf("expected search hit bybit-alpha, got total=%d", total)
	}
}
