package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coinvo/funnel-api/internal/cache"
	"github.com/coinvo/funnel-api/internal/config"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
)

const (
	dashboardCacheTTL    = 45 * time.Second
	dashboardDefaultDays = 30
	dashboardRecentUsers = 5
	dashboardDateLayout  = "2006-01-02"
)

// DashboardQueryInput 看板查询入参
type DashboardQueryInput struct {
	StartDate string
	EndDate   string
}

// DashboardRates 漏斗转化率（百分比，保留一位小数）
type DashboardRates struct {
	VisitorToSignup float64 `json:"visitor_to_signup"`
	SignupToDeposit float64 `json:"signup_to_deposit"`
	DepositToReward float64 `json:"deposit_to_reward"`
	Overall         float64 `json:"overall"`
}

// DashboardDropOffs 各阶段流失率（百分比，保留一位小数）
type DashboardDropOffs struct {
	VisitorToSignup float64 `json:"visitor_to_signup"`
	SignupToDeposit float64 `json:"signup_to_deposit"`
	DepositToReward float64 `json:"deposit_to_reward"`
}

// DashboardStats 看板汇总数据
type DashboardStats struct {
	StartDate          string                    `json:"start_date"`
	EndDate            string                    `json:"end_date"`
	LandingVisitors    int64                     `json:"landing_visitors"`
	TotalLandingClicks int64                     `json:"total_landing_clicks"`
	Step1Signups       int64                     `json:"step1_signups"`
	Step2Deposits      int64                     `json:"step2_deposits"`
	Step3Rewards       int64                     `json:"step3_rewards"`
	Rates              DashboardRates            `json:"rates"`
	DropOffs           DashboardDropOffs         `json:"drop_offs"`
	Sources            []repository.SourceStat   `json:"sources"`
	Devices            []repository.DeviceStat   `json:"devices"`
	Platforms          []repository.PlatformStat `json:"platforms"`
	RecentUsers        []models.AffiliateUser    `json:"recent_users"`
}

// DashboardService 漏斗看板服务
type DashboardService struct {
	cfg  *config.Config
	repo repository.DashboardRepository
}

// NewDashboardService 创建漏斗看板服务
func NewDashboardService(cfg *config.Config, repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{cfg: cfg, repo: repo}
}

// GetStats 获取时间窗口内的漏斗汇总，结果短暂缓存
func (s *DashboardService) GetStats(input DashboardQueryInput) (*DashboardStats, error) {
	start, end, err := resolveDashboardWindow(input, nowFunc())
	if err != nil {
		return nil, err
	}
	inviteCode := s.inviteCode()

	ctx := context.Background()
	cacheKey := fmt.Sprintf("dashboard:stats:%s:%s:%s",
		start.Format(dashboardDateLayout), end.Format(dashboardDateLayout), inviteCode)
	var cached DashboardStats
	if hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached); cacheErr == nil && hit {
		return &cached, nil
	}

	stats := &DashboardStats{
		StartDate: start.Format(dashboardDateLayout),
		EndDate:   end.Add(-time.Second).Format(dashboardDateLayout),
	}

	if stats.LandingVisitors, err = s.repo.CountDistinctSessions(start, end); err != nil {
		return nil, err
	}
	if stats.TotalLandingClicks, err = s.repo.CountClicks(start, end); err != nil {
		return nil, err
	}
	if stats.Step1Signups, err = s.repo.CountSignups(inviteCode, start, end); err != nil {
		return nil, err
	}
	if stats.Step2Deposits, err = s.repo.CountDeposits(inviteCode, start, end); err != nil {
		return nil, err
	}
	if stats.Step3Rewards, err = s.repo.CountRewards(inviteCode, start, end); err != nil {
		return nil, err
	}

	stats.Rates = DashboardRates{
		VisitorToSignup: percentOf(stats.Step1Signups, stats.LandingVisitors),
		SignupToDeposit: percentOf(stats.Step2Deposits, stats.Step1Signups),
		DepositToReward: percentOf(stats.Step3Rewards, stats.Step2Deposits),
		Overall:         percentOf(stats.Step3Rewards, stats.LandingVisitors),
	}
	stats.DropOffs = DashboardDropOffs{
		VisitorToSignup: percentOf(stats.LandingVisitors-stats.Step1Signups, stats.LandingVisitors),
		SignupToDeposit: percentOf(stats.Step1Signups-stats.Step2Deposits, stats.Step1Signups),
		DepositToReward: percentOf(stats.Step2Deposits-stats.Step3Rewards, stats.Step2Deposits),
	}

	linkSources, err := s.repo.LinkSourceBreakdown(start, end)
	if err != nil {
		return nil, err
	}
	signupSources, err := s.repo.SignupSourceBreakdown(inviteCode, start, end)
	if err != nil {
		return nil, err
	}
	stats.Sources = mergeSourceStats(linkSources, signupSources)

	if stats.Devices, err = s.repo.DeviceBreakdown(start, end); err != nil {
		return nil, err
	}
	if stats.Platforms, err = s.repo.PlatformBreakdown(inviteCode, start, end); err != nil {
		return nil, err
	}
	if stats.RecentUsers, err = s.repo.RecentAffiliateUsers(inviteCode, dashboardRecentUsers); err != nil {
		return nil, err
	}

	_ = cache.SetJSON(ctx, cacheKey, stats, dashboardCacheTTL)
	return stats, nil
}

func (s *DashboardService) inviteCode() string {
	if s.cfg != nil && s.cfg.Affiliate.InviteCode != "" {
		return s.cfg.Affiliate.InviteCode
	}
	return ""
}

// resolveDashboardWindow 解析查询窗口，缺省为最近 30 天，end 为开区间上界。
func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (time.Time, time.Time, error) {
	end := now
	if input.EndDate != "" {
		parsed, err := time.ParseInLocation(dashboardDateLayout, input.EndDate, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, ErrDashboardRangeInvalid
		}
		end = parsed.AddDate(0, 0, 1)
	}

	start := end.AddDate(0, 0, -dashboardDefaultDays)
	if input.StartDate != "" {
		parsed, err := time.ParseInLocation(dashboardDateLayout, input.StartDate, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, ErrDashboardRangeInvalid
		}
		start = parsed
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrDashboardRangeInvalid
	}
	return start, end, nil
}

// percentOf 计算百分比并保留一位小数，分母为零时返回 0。
func percentOf(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	value := float64(numerator) / float64(denominator) * 100
	return math.Round(value*10) / 10
}

// mergeSourceStats 将链接访问来源与注册归因来源按来源名合并，按访客数稳定降序。
// 仅有注册没有点击的来源保留为零访问行。
func mergeSourceStats(linkStats, signupStats []repository.SourceStat) []repository.SourceStat {
	merged := make([]repository.SourceStat, 0, len(linkStats)+len(signupStats))
	index := make(map[string]int, len(linkStats))

	for _, stat := range linkStats {
		index[stat.Source] = len(merged)
		merged = append(merged, stat)
	}
	for _, stat := range signupStats {
		if pos, ok := index[stat.Source]; ok {
			merged[pos].Signups += stat.Signups
			continue
		}
		index[stat.Source] = len(merged)
		merged = append(merged, repository.SourceStat{Source: stat.Source, Signups: stat.Signups})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Visitors > merged[j].Visitors
	})
	return merged
}
