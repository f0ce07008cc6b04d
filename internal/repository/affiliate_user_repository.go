package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/gorm"
)

// AffiliateUserStats 推广用户头部统计
type AffiliateUserStats struct {
	Total          int64 `json:"total"`
	Step2Completed int64 `json:"step2_completed"`
	Step3Completed int64 `json:"step3_completed"`
	RewardsClaimed int64 `json:"rewards_claimed"`
}

// AffiliateUserRepository 推广用户数据访问接口
type AffiliateUserRepository interface {
	GetByID(id uint) (*models.AffiliateUser, error)
	GetByUID(uid string) (*models.AffiliateUser, error)
	List(filter AffiliateUserListFilter) ([]models.AffiliateUser, int64, error)
	Stats(filter AffiliateUserListFilter) (*AffiliateUserStats, error)
	Create(user *models.AffiliateUser) error
	Update(user *models.AffiliateUser) error
	StampAttribution(sessionID string, linkID uint, source string, clickedAt time.Time) (int64, error)
}

// GormAffiliateUserRepository GORM 实现
type GormAffiliateUserRepository struct {
	db *gorm.DB
}

// NewAffiliateUserRepository 创建推广用户仓库
func NewAffiliateUserRepository(db *gorm.DB) *GormAffiliateUserRepository {
	return &GormAffiliateUserRepository{db: db}
}

// GetByID 根据 ID 获取推广用户
func (r *GormAffiliateUserRepository) GetByID(id uint) (*models.AffiliateUser, error) {
	var user models.AffiliateUser
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUID 根据平台用户标识获取推广用户
func (r *GormAffiliateUserRepository) GetByUID(uid string) (*models.AffiliateUser, error) {
	var user models.AffiliateUser
	if err := r.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormAffiliateUserRepository) buildListQuery(filter AffiliateUserListFilter) *gorm.DB {
	query := r.db.Model(&models.AffiliateUser{})
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.InviteCode != "" {
		query = query.Where("invite_code = ?", filter.InviteCode)
	}
	if filter.HasDeposit != nil {
		if *filter.HasDeposit {
			query = query.Where("step2_completed_at IS NOT NULL")
		} else {
			query = query.Where("step2_completed_at IS NULL")
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"uid"})
		if condition != "" {
			query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
		}
	}
	return query
}

// List 获取推广用户列表
func (r *GormAffiliateUserRepository) List(filter AffiliateUserListFilter) ([]models.AffiliateUser, int64, error) {
	query := r.buildListQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]models.AffiliateUser, 0)
	err := applyPagination(query, filter.Page, filter.PageSize).
		Preload("TrackingLink").
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Stats 统计过滤范围内的漏斗阶段完成数
func (r *GormAffiliateUserRepository) Stats(filter AffiliateUserListFilter) (*AffiliateUserStats, error) {
	stats := &AffiliateUserStats{}

	if err := r.buildListQuery(filter).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.buildListQuery(filter).Where("step2_completed_at IS NOT NULL").
		Count(&stats.Step2Completed).Error; err != nil {
		return nil, err
	}
	if err := r.buildListQuery(filter).Where("step3_completed_at IS NOT NULL").
		Count(&stats.Step3Completed).Error; err != nil {
		return nil, err
	}
	if err := r.buildListQuery(filter).Where("reward_status = ?", constants.RewardStatusClaimed).
		Count(&stats.RewardsClaimed).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Create 创建推广用户
func (r *GormAffiliateUserRepository) Create(user *models.AffiliateUser) error {
	return r.db.Create(user).Error
}

// Update 更新推广用户
func (r *GormAffiliateUserRepository) Update(user *models.AffiliateUser) error {
	return r.db.Save(user).Error
}

// StampAttribution 将同会话且尚未归因的推广用户标记到追踪链接
func (r *GormAffiliateUserRepository) StampAttribution(sessionID string, linkID uint, source string, clickedAt time.Time) (int64, error) {
	if sessionID == "" || linkID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.AffiliateUser{}).
		Where("session_id = ? AND funnel_clicked_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"tracking_link_id":  linkID,
			"traffic_source":    source,
			"funnel_clicked_at": clickedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
