package main

import (
	"fmt"
	"time"

	"github.com/coinvo/funnel-api/internal/config"
	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/logger"
	"github.com/coinvo/funnel-api/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加漏斗
	funnels := []models.Funnel{
		{
			Name:                    "Bybit 新手注册漏斗",
			Slug:                    "bybit-welcome",
			Heading:                 "注册 Bybit 领取新手奖励",
			SubHeading:              "完成注册与首次入金即可领取返现",
			AffiliateURL:            "https://www.bybit.com/invite?ref=COINVO2024",
			BaseURL:                 "https://partner.bybit.com/b/coinvo",
			AffiliateEarningsAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(30)),
			Platform:                "bybit",
			IsActive:                true,
		},
		{
			Name:                    "OKX 返现漏斗",
			Slug:                    "okx-cashback",
			Heading:                 "OKX 交易返现通道",
			SubHeading:              "通过专属链接注册，手续费返现最高 40%",
			AffiliateURL:            "https://www.okx.com/join/COINVO2024",
			AffiliateEarningsAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(25)),
			Platform:                "okx",
			IsActive:                true,
		},
		{
			Name:                    "Bitget 活动漏斗（暂停）",
			Slug:                    "bitget-promo",
			Heading:                 "Bitget 限时活动",
			SubHeading:              "活动已结束，保留用于后台演示",
			AffiliateURL:            "https://www.bitget.com/referral/coinvo",
			AffiliateEarningsAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(20)),
			Platform:                "bitget",
			IsActive:                false,
		},
	}

	for _, funnel := range funnels {
		var existing models.Funnel
		if err := models.DB.Where("slug = ?", funnel.Slug).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&funnel).Error; err != nil {
				stdLog.Printf("Failed to create funnel %s: %v", funnel.Slug, err)
			} else {
				stdLog.Printf("Created funnel: %s", funnel.Slug)
			}
		} else {
			stdLog.Printf("Funnel already exists: %s", funnel.Slug)
		}
	}

	// 获取漏斗ID
	funnelIDs := map[string]uint{}
	var funnelList []models.Funnel
	if err := models.DB.Where("slug IN ?", []string{"bybit-welcome", "okx-cashback", "bitget-promo"}).Find(&funnelList).Error; err != nil {
		stdLog.Printf("Failed to load funnels: %v", err)
	}
	for _, funnel := range funnelList {
		funnelIDs[funnel.Slug] = funnel.ID
	}
	bybitID := funnelIDs["bybit-welcome"]
	okxID := funnelIDs["okx-cashback"]
	bitgetID := funnelIDs["bitget-promo"]

	// 添加追踪链接
	expiredAt := time.Now().AddDate(0, -1, 0)
	trackingLinks := []models.TrackingLink{
		{
			FunnelID:  bybitID,
			Name:      "TikTok 短视频投放",
			Source:    "tiktok",
			Slug:      "tiktok-k3f9",
			ShortCode: "a1b2c3",
			IsActive:  true,
		},
		{
			FunnelID:  bybitID,
			Name:      "YouTube 频道引流",
			Source:    "youtube",
			Slug:      "youtube-p7q2",
			ShortCode: "d4e5f6",
			IsActive:  true,
		},
		{
			FunnelID:  okxID,
			Name:      "Telegram 社群推广",
			Source:    "telegram",
			Slug:      "telegram-m8n1",
			ShortCode: "g7h8i9",
			IsActive:  true,
		},
		{
			FunnelID:  okxID,
			Name:      "Twitter 置顶推文（已停用）",
			Source:    "twitter",
			Slug:      "twitter-x2y4",
			ShortCode: "j1k2l3",
			IsActive:  false,
		},
		{
			FunnelID:  bitgetID,
			Name:      "活动落地页（已过期）",
			Source:    "campaign",
			Slug:      "campaign-z9w5",
			ShortCode: "m4n5o6",
			IsActive:  true,
			ExpiresAt: &expiredAt,
		},
	}

	for _, link := range trackingLinks {
		if link.FunnelID == 0 {
			stdLog.Printf("Skip tracking link %s: funnel_id missing", link.Slug)
			continue
		}
		var existing models.TrackingLink
		if err := models.DB.Where("slug = ?", link.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&link).Error; err != nil {
				stdLog.Printf("Failed to create tracking link %s: %v", link.Slug, err)
			} else {
				stdLog.Printf("Created tracking link: %s", link.Slug)
			}
		} else {
			stdLog.Printf("Tracking link already exists: %s", link.Slug)
		}
	}

	// 获取追踪链接ID
	linkIDs := map[string]uint{}
	var linkList []models.TrackingLink
	if err := models.DB.Where("slug IN ?", []string{"tiktok-k3f9", "youtube-p7q2", "telegram-m8n1"}).Find(&linkList).Error; err != nil {
		stdLog.Printf("Failed to load tracking links: %v", err)
	}
	for _, link := range linkList {
		linkIDs[link.Slug] = link.ID
	}

	// 添加覆盖各漏斗阶段的归因用户
	now := time.Now()
	clickedAt := now.Add(-72 * time.Hour)
	signedUpAt := now.Add(-70 * time.Hour)
	depositedAt := now.Add(-48 * time.Hour)
	rewardedAt := now.Add(-24 * time.Hour)

	affiliateSeedPlans := []struct {
		User     models.AffiliateUser
		LinkSlug string
	}{
		{
			LinkSlug: "tiktok-k3f9",
			User: models.AffiliateUser{
				UID:              "bybit-1001",
				Platform:         "bybit",
				TrafficSource:    "tiktok",
				SessionID:        "seed-session-1001",
				RegisterTime:     &signedUpAt,
				FunnelClickedAt:  &clickedAt,
				InviteCode:       constants.InviteCodeDefault,
				FunnelStep:       constants.FunnelStageSignedUp,
				Step1CompletedAt: &signedUpAt,
				RewardStatus:     constants.RewardStatusPending,
			},
		},
		{
			LinkSlug: "tiktok-k3f9",
			User: models.AffiliateUser{
				UID:              "bybit-1002",
				Platform:         "bybit",
				TrafficSource:    "tiktok",
				SessionID:        "seed-session-1002",
				RegisterTime:     &signedUpAt,
				FunnelClickedAt:  &clickedAt,
				InviteCode:       constants.InviteCodeDefault,
				FirstDepositTime: &depositedAt,
				LastDepositTime:  &depositedAt,
				FunnelStep:       constants.FunnelStageDeposited,
				Step1CompletedAt: &signedUpAt,
				Step2CompletedAt: &depositedAt,
				DepositAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(500)),
				RewardStatus:     constants.RewardStatusPending,
			},
		},
		{
			LinkSlug: "youtube-p7q2",
			User: models.AffiliateUser{
				UID:              "bybit-1003",
				Platform:         "bybit",
				TrafficSource:    "youtube",
				SessionID:        "seed-session-1003",
				RegisterTime:     &signedUpAt,
				FunnelClickedAt:  &clickedAt,
				InviteCode:       constants.InviteCodeDefault,
				FirstDepositTime: &depositedAt,
				LastDepositTime:  &rewardedAt,
				FirstTradeTime:   &rewardedAt,
				LastTradeTime:    &rewardedAt,
				FunnelStep:       constants.FunnelStageRewarded,
				Step1CompletedAt: &signedUpAt,
				Step2CompletedAt: &depositedAt,
				Step3CompletedAt: &rewardedAt,
				DepositAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(2300)),
				RewardStatus:     constants.RewardStatusClaimed,
			},
		},
		{
			LinkSlug: "telegram-m8n1",
			User: models.AffiliateUser{
				UID:              "okx-2001",
				Platform:         "okx",
				TrafficSource:    "telegram",
				SessionID:        "seed-session-2001",
				RegisterTime:     &signedUpAt,
				FunnelClickedAt:  &clickedAt,
				InviteCode:       constants.InviteCodeDefault,
				FunnelStep:       constants.FunnelStageSignedUp,
				Step1CompletedAt: &signedUpAt,
				RewardStatus:     constants.RewardStatusPending,
			},
		},
		{
			// 无归因链接的自然注册用户
			User: models.AffiliateUser{
				UID:              "okx-2002",
				Platform:         "okx",
				SessionID:        "seed-session-2002",
				RegisterTime:     &signedUpAt,
				InviteCode:       "OTHER2024",
				FirstDepositTime: &depositedAt,
				LastDepositTime:  &depositedAt,
				FunnelStep:       constants.FunnelStageDeposited,
				Step1CompletedAt: &signedUpAt,
				Step2CompletedAt: &depositedAt,
				DepositAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(150)),
				RewardStatus:     constants.RewardStatusNotEligible,
			},
		},
	}

	for _, plan := range affiliateSeedPlans {
		user := plan.User
		if plan.LinkSlug != "" {
			if linkID, ok := linkIDs[plan.LinkSlug]; ok && linkID > 0 {
				id := linkID
				user.TrackingLinkID = &id
			}
		}
		var existing models.AffiliateUser
		if err := models.DB.Where("uid = ?", user.UID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create affiliate user %s: %v", user.UID, err)
			} else {
				stdLog.Printf("Created affiliate user: %s", user.UID)
			}
		} else {
			stdLog.Printf("Affiliate user already exists: %s", user.UID)
		}
	}

	fmt.Println("\n✅ Test data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Funnels (2 active + 1 paused)")
	fmt.Println("- 5 Tracking links (含停用与过期演示数据)")
	fmt.Println("- 5 Affiliate users (覆盖注册/入金/奖励阶段)")
}
