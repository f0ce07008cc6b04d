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

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func seedDashboardClicks(t *testing.T, db *gorm.DB, windowStart time.Time) *models.TrackingLink {
	t.Helper()

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
	link := &models.TrackingLink{
		FunnelID:  funnel.ID,
		Name:      "tiktok",
		Source:    "tiktok",
		Slug:      "tiktok-k3f9",
		ShortCode: "a1b2c3",
		IsActive:  true,
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("create tracking link failed: %v", err)
	}

	clicks := []models.LinkClick{
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s1", DeviceType: constants.DeviceTypeMobile, ClickedAt: windowStart.Add(time.Hour)},
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s1", DeviceType: constants.DeviceTypeMobile, ClickedAt: windowStart.Add(2 * time.Hour)},
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s2", DeviceType: constants.DeviceTypeDesktop, ClickedAt: windowStart.Add(3 * time.Hour)},
		// 窗口外的点击不计入
		{TrackingLinkID: link.ID, FunnelID: funnel.ID, SessionID: "s3", DeviceType: constants.DeviceTypeDesktop, ClickedAt: windowStart.Add(-time.Hour)},
	}
	for i := range clicks {
		if err := db.Create(&clicks[i]).Error; err != nil {
			t.Fatalf("create click failed: %v", err)
		}
	}
	return link
}

func TestDashboardClickAggregates(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	windowStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)
	seedDashboardClicks(t, db, windowStart)

	sessions, err := repo.CountDistinctSessions(windowStart, windowEnd)
	if err != nil {
		t.Fatalf("count sessions failed: %v", err)
	}
	if sessions != 2 {
		t.Fatalf("expected 2 distinct sessions, got %d", sessions)
	}

	clicks, err := repo.CountClicks(windowStart, windowEnd)
	if err != nil {
		t.Fatalf("count clicks failed: %v", err)
	}
	if clicks != 3 {
		t.Fatalf("expected 3 clicks in window, got %d", clicks)
	}

	sources, err := repo.LinkSourceBreakdown(windowStart, windowEnd)
	if err != nil {
		t.Fatalf("link source breakdown failed: %v", err)
	}
	if len(sources) != 1 || sources[0].Source != "tiktok" {
		t.Fatalf("expected tiktok source row, got %+v", sources)
	}
	if sources[0].Visitors != 2 || sources[0].Clicks != 3 {
		t.Fatalf("expected tiktok 2 visitors / 3 clicks, got %d/%d", sources[0].Visitors, sources[0].Clicks)
	}

	devices, err := repo.DeviceBreakdown(windowStart, windowEnd)
	if err != nil {
		t.Fatalf("device breakdown failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 device rows, got %d", len(devices))
	}
	// 访客数按独立会话计：mobile 为 s1 两次点击
	if devices[0].DeviceType != constants.DeviceTypeMobile || devices[0].Visitors != 1 || devices[0].Clicks != 2 {
		t.Fatalf("expected mobile first with 1 visitor / 2 clicks, got %+v", devices[0])
	}
	if devices[1].Visitors != 1 || devices[1].Clicks != 1 {
		t.Fatalf("expected desktop 1 visitor / 1 click, got %+v", devices[1])
	}
}

func TestDashboardFunnelCounts(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	windowStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)

	registeredAt := windowStart.Add(24 * time.Hour)
	depositedAt := windowStart.Add(48 * time.Hour)
	rewardedAt := windowStart.Add(72 * time.Hour)
	outside := windowStart.Add(-24 * time.Hour)

	users := []models.AffiliateUser{
		{UID: "u1", Platform: "bybit", InviteCode: "COINVO2024", RegisterTime: &registeredAt},
		{UID: "u2", Platform: "bybit", InviteCode: "COINVO2024", RegisterTime: &registeredAt, Step2CompletedAt: &depositedAt},
		{UID: "u3", Platform: "okx", InviteCode: "COINVO2024", RegisterTime: &registeredAt, Step2CompletedAt: &depositedAt, Step3CompletedAt: &rewardedAt},
		// 其他邀请码与窗口外数据不计入
		{UID: "u4", Platform: "okx", InviteCode: "OTHER", RegisterTime: &registeredAt},
		{UID: "u5", Platform: "okx", InviteCode: "COINVO2024", RegisterTime: &outside},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create affiliate user failed: %v", err)
		}
	}

	signups, err := repo.CountSignups("COINVO2024", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("count signups failed: %v", err)
	}
	if signups != 3 {
		t.Fatalf("expected 3 signups, got %d", signups)
	}

	deposits, err := repo.CountDeposits("COINVO2024", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("count deposits failed: %v", err)
	}
	if deposits != 2 {
		t.Fatalf("expected 2 deposits, got %d", deposits)
	}

	rewards, err := repo.CountRewards("COINVO2024", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("count rewards failed: %v", err)
	}
	if rewards != 1 {
		t.Fatalf("expected 1 reward, got %d", rewards)
	}

	platforms, err := repo.PlatformBreakdown("COINVO2024", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("platform breakdown failed: %v", err)
	}
	if len(platforms) != 2 {
		t.Fatalf("expected 2 platform rows, got %d", len(platforms))
	}

	recent, err := repo.RecentAffiliateUsers("COINVO2024", 2)
	if err != nil {
		t.Fatalf("recent users failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent users, got %d", len(recent))
	}
}

func TestDashboardSignupSourceBreakdown(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	windowStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)

	registeredAt := windowStart.Add(24 * time.Hour)
	outside := windowStart.Add(-24 * time.Hour)
	users := []models.AffiliateUser{
		{UID: "u1", Platform: "bybit", InviteCode: "COINVO2024", TrafficSource: "telegram", RegisterTime: &registeredAt},
		{UID: "u2", Platform: "bybit", InviteCode: "COINVO2024", TrafficSource: "telegram", RegisterTime: &registeredAt},
		{UID: "u3", Platform: "okx", InviteCode: "COINVO2024", TrafficSource: "tiktok", RegisterTime: &registeredAt},
		// 未归因、他站邀请码、窗口外数据不计入
		{UID: "u4", Platform: "okx", InviteCode: "COINVO2024", RegisterTime: &registeredAt},
		{UID: "u5", Platform: "okx", InviteCode: "OTHER", TrafficSource: "telegram", RegisterTime: &registeredAt},
		{UID: "u6", Platform: "okx", InviteCode: "COINVO2024", TrafficSource: "telegram", RegisterTime: &outside},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create affiliate user failed: %v", err)
		}
	}

	sources, err := repo.SignupSourceBreakdown("COINVO2024", windowStart, windowEnd)
	if err != nil {
		t.Fatalf("signup source breakdown failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 source rows, got %d", len(sources))
	}
	bySource := map[string]int64{}
	for _, row := range sources {
		bySource[row.Source] = row.Signups
	}
	if bySource["telegram"] != 2 || bySource["tiktok"] != 1 {
		t.Fatalf("unexpected signup counts: %+v", bySource)
	}
}

func TestDashboardRecentUsersOrderedByRegisterTime(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)

	// 创建顺序与注册时间相反，验证按注册时间排序
	early := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	users := []models.AffiliateUser{
		{UID: "first-created", Platform: "bybit", InviteCode: "COINVO2024", RegisterTime: &late},
		{UID: "second-created", Platform: "bybit", InviteCode: "COINVO2024", RegisterTime: &early},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create affiliate user failed: %v", err)
		}
	}

	recent, err := repo.RecentAffiliateUsers("COINVO2024", 5)
	if err != nil {
		t.Fatalf("recent users failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 users, got %d", len(recent))
	}
	if recent[0].UID != "first-created" || recent[1].UID != "second-created" {
		t.Fatalf("expected register_time DESC order, got %q then %q", recent[0].UID, recent[1].UID)
	}
}
