package repository

import (
	"time"

	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/gorm"
)

// SourceStat 按来源聚合的访问与注册统计
type SourceStat struct {
	Source   string `json:"source"`
	Visitors int64  `json:"visitors"`
	Clicks   int64  `json:"clicks"`
	Signups  int64  `json:"signups"`
}

// PlatformStat 按平台聚合的推广用户统计
type PlatformStat struct {
	Platform string `json:"platform"`
	Users    int64  `json:"users"`
}

// DashboardRepository 看板聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	CountDistinctSessions(start, end time.Time) (int64, error)
	CountClicks(start, end time.Time) (int64, error)
	LinkSourceBreakdown(start, end time.Time) ([]SourceStat, error)
	SignupSourceBreakdown(inviteCode string, start, end time.Time) ([]SourceStat, error)
	DeviceBreakdown(start, end time.Time) ([]DeviceStat, error)
	CountSignups(inviteCode string, start, end time.Time) (int64, error)
	CountDeposits(inviteCode string, start, end time.Time) (int64, error)
	CountRewards(inviteCode string, start, end time.Time) (int64, error)
	PlatformBreakdown(inviteCode string, start, end time.Time) ([]PlatformStat, error)
	RecentAffiliateUsers(inviteCode string, limit int) ([]models.AffiliateUser, error)
}

// GormDashboardRepository GORM 实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建看板仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// CountDistinctSessions 统计窗口内落地页独立会话数
func (r *GormDashboardRepository) CountDistinctSessions(start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.LinkClick{}).
		Where("clicked_at >= ? AND clicked_at < ? AND session_id <> ''", start, end).
		Distinct("session_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountClicks 统计窗口内落地页点击总数
func (r *GormDashboardRepository) CountClicks(start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.LinkClick{}).
		Where("clicked_at >= ? AND clicked_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LinkSourceBreakdown 按追踪链接来源聚合窗口内访问
func (r *GormDashboardRepository) LinkSourceBreakdown(start, end time.Time) ([]SourceStat, error) {
	stats := make([]SourceStat, 0)
	err := r.db.Model(&models.LinkClick{}).
		Select("tracking_links.source AS source, COUNT(DISTINCT link_clicks.session_id) AS visitors, COUNT(*) AS clicks").
		Joins("JOIN tracking_links ON tracking_links.id = link_clicks.tracking_link_id").
		Where("link_clicks.clicked_at >= ? AND link_clicks.clicked_at < ?", start, end).
		Group("tracking_links.source").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SignupSourceBreakdown 按归因来源聚合窗口内注册的自有推广用户
func (r *GormDashboardRepository) SignupSourceBreakdown(inviteCode string, start, end time.Time) ([]SourceStat, error) {
	stats := make([]SourceStat, 0)
	err := r.db.Model(&models.AffiliateUser{}).
		Select("traffic_source AS source, COUNT(*) AS signups").
		Where("invite_code = ? AND register_time >= ? AND register_time < ? AND traffic_source <> ''", inviteCode, start, end).
		Group("traffic_source").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeviceBreakdown 按设备类型聚合窗口内独立访客与点击
func (r *GormDashboardRepository) DeviceBreakdown(start, end time.Time) ([]DeviceStat, error) {
	stats := make([]DeviceStat, 0)
	err := r.db.Model(&models.LinkClick{}).
		Select("device_type, COUNT(DISTINCT session_id) AS visitors, COUNT(*) AS clicks").
		Where("clicked_at >= ? AND clicked_at < ?", start, end).
		Group("device_type").
		Order("visitors DESC, clicks DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CountSignups 统计窗口内注册完成的自有推广用户数
func (r *GormDashboardRepository) CountSignups(inviteCode string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AffiliateUser{}).
		Where("invite_code = ? AND register_time >= ? AND register_time < ?", inviteCode, start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountDeposits 统计窗口内完成入金的自有推广用户数
func (r *GormDashboardRepository) CountDeposits(inviteCode string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AffiliateUser{}).
		Where("invite_code = ? AND step2_completed_at >= ? AND step2_completed_at < ?", inviteCode, start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountRewards 统计窗口内完成奖励步骤的自有推广用户数
func (r *GormDashboardRepository) CountRewards(inviteCode string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AffiliateUser{}).
		Where("invite_code = ? AND step3_completed_at >= ? AND step3_completed_at < ?", inviteCode, start, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PlatformBreakdown 按平台聚合窗口内注册的自有推广用户
func (r *GormDashboardRepository) PlatformBreakdown(inviteCode string, start, end time.Time) ([]PlatformStat, error) {
	stats := make([]PlatformStat, 0)
	err := r.db.Model(&models.AffiliateUser{}).
		Select("platform, COUNT(*) AS users").
		Where("invite_code = ? AND register_time >= ? AND register_time < ?", inviteCode, start, end).
		Group("platform").
		Order("users DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentAffiliateUsers 按注册时间取最近注册的自有推广用户
func (r *GormDashboardRepository) RecentAffiliateUsers(inviteCode string, limit int) ([]models.AffiliateUser, error) {
	users := make([]models.AffiliateUser, 0)
	err := r.db.Where("invite_code = ?", inviteCode).
		Order("register_time DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
