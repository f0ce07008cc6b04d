package repository

import (
	"time"

	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/gorm"
)

// CountryStat 按国家聚合的点击统计
type CountryStat struct {
	Country string `json:"country"`
	Clicks  int64  `json:"clicks"`
}

// DeviceStat 按设备类型聚合的访客与点击统计
type DeviceStat struct {
	DeviceType string `json:"device_type"`
	Visitors   int64  `json:"visitors"`
	Clicks     int64  `json:"clicks"`
}

// ClickRepository 点击数据访问接口
type ClickRepository interface {
	HasPriorClick(linkID uint, sessionID, ipAddress string) (bool, error)
	RecordClick(click *models.LinkClick, event *models.ConversionEvent, uniqueVisitor bool) error
	CountClicks(linkID uint, since *time.Time) (int64, error)
	CountDistinctVisitors(linkID uint) (int64, error)
	TopCountries(linkID uint, limit int) ([]CountryStat, error)
	DeviceCounts(linkID uint) ([]DeviceStat, error)
	RecentClicks(linkID uint, limit int) ([]models.LinkClick, error)
}

// GormClickRepository GORM 实现
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击仓库
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// HasPriorClick 判断该链接是否已有同会话或同 IP 的点击
func (r *GormClickRepository) HasPriorClick(linkID uint, sessionID, ipAddress string) (bool, error) {
	query := r.db.Model(&models.LinkClick{}).Where("tracking_link_id = ?", linkID)
	switch {
	case sessionID != "" && ipAddress != "":
		query = query.Where("session_id = ? OR ip_address = ?", sessionID, ipAddress)
	case sessionID != "":
		query = query.Where("session_id = ?", sessionID)
	case ipAddress != "":
		query = query.Where("ip_address = ?", ipAddress)
	default:
		return false, nil
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordClick 单事务写入点击记录、转化事件并更新链接计数
func (r *GormClickRepository) RecordClick(click *models.LinkClick, event *models.ConversionEvent, uniqueVisitor bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(click).Error; err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		updates := map[string]interface{}{
			"click_count":     gorm.Expr("click_count + ?", 1),
			"last_clicked_at": click.ClickedAt,
		}
		if uniqueVisitor {
			updates["unique_visitors"] = gorm.Expr("unique_visitors + ?", 1)
		}
		return tx.Model(&models.TrackingLink{}).
			Where("id = ?", click.TrackingLinkID).
			Updates(updates).Error
	})
}

// CountClicks 统计链接点击数，since 为空时统计全部
func (r *GormClickRepository) CountClicks(linkID uint, since *time.Time) (int64, error) {
	query := r.db.Model(&models.LinkClick{}).Where("tracking_link_id = ?", linkID)
	if since != nil {
		query = query.Where("clicked_at >= ?", *since)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountDistinctVisitors 统计链接的独立会话数
func (r *GormClickRepository) CountDistinctVisitors(linkID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.LinkClick{}).
		Where("tracking_link_id = ? AND session_id <> ''", linkID).
		Distinct("session_id").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// TopCountries 按点击量取前 N 个国家
func (r *GormClickRepository) TopCountries(linkID uint, limit int) ([]CountryStat, error) {
	stats := make([]CountryStat, 0)
	err := r.db.Model(&models.LinkClick{}).
		Select("country, COUNT(*) AS clicks").
		Where("tracking_link_id = ? AND country <> ''", linkID).
		Group("country").
		Order("clicks DESC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeviceCounts 按设备类型聚合独立访客与点击量
func (r *GormClickRepository) DeviceCounts(linkID uint) ([]DeviceStat, error) {
	stats := make([]DeviceStat, 0)
	err := r.db.Model(&models.LinkClick{}).
		Select("device_type, COUNT(DISTINCT session_id) AS visitors, COUNT(*) AS clicks").
		Where("tracking_link_id = ?", linkID).
		Group("device_type").
		Order("visitors DESC, clicks DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentClicks 取最近的点击记录
func (r *GormClickRepository) RecentClicks(linkID uint, limit int) ([]models.LinkClick, error) {
	clicks := make([]models.LinkClick, 0)
	err := r.db.Where("tracking_link_id = ?", linkID).
		Order("clicked_at DESC").
		Limit(limit).
		Find(&clicks).Error
	if err != nil {
		return nil, err
	}
	return clicks, nil
}
