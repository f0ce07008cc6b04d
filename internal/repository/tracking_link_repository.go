package repository

import (
	"errors"
	"strings"

	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/gorm"
)

// TrackingLinkRepository 追踪链接数据访问接口
type TrackingLinkRepository interface {
	GetByID(id uint) (*models.TrackingLink, error)
	GetWithFunnelByID(id uint) (*models.TrackingLink, error)
	GetByShortCode(code string) (*models.TrackingLink, error)
	GetBySlug(slug string) (*models.TrackingLink, error)
	GetByFunnelSlugAndSlug(funnelSlug, slug string) (*models.TrackingLink, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	ShortCodeExists(code string, excludeID uint) (bool, error)
	List(filter TrackingLinkListFilter) ([]models.TrackingLink, int64, error)
	Create(link *models.TrackingLink) error
	Update(link *models.TrackingLink) error
	Delete(id uint) error
	DeleteBulk(ids []uint) (int64, error)
}

// GormTrackingLinkRepository GORM 实现
type GormTrackingLinkRepository struct {
	db *gorm.DB
}

// NewTrackingLinkRepository 创建追踪链接仓库
func NewTrackingLinkRepository(db *gorm.DB) *GormTrackingLinkRepository {
	return &GormTrackingLinkRepository{db: db}
}

// GetByID 根据 ID 获取追踪链接
func (r *GormTrackingLinkRepository) GetByID(id uint) (*models.TrackingLink, error) {
	var link models.TrackingLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetWithFunnelByID 根据 ID 获取追踪链接并携带漏斗信息
func (r *GormTrackingLinkRepository) GetWithFunnelByID(id uint) (*models.TrackingLink, error) {
	var link models.TrackingLink
	if err := r.db.Preload("Funnel").First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByShortCode 根据短码获取追踪链接
func (r *GormTrackingLinkRepository) GetByShortCode(code string) (*models.TrackingLink, error) {
	var link models.TrackingLink
	if err := r.db.Preload("Funnel").Where("short_code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetBySlug 根据 slug 获取追踪链接
func (r *GormTrackingLinkRepository) GetBySlug(slug string) (*models.TrackingLink, error) {
	var link models.TrackingLink
	if err := r.db.Preload("Funnel").Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetByFunnelSlugAndSlug 根据漏斗 slug 与链接 slug 获取追踪链接
func (r *GormTrackingLinkRepository) GetByFunnelSlugAndSlug(funnelSlug, slug string) (*models.TrackingLink, error) {
	var link models.TrackingLink
	err := r.db.Preload("Funnel").
		Joins("JOIN funnels ON funnels.id = tracking_links.funnel_id").
		Where("funnels.slug = ? AND tracking_links.slug = ?", funnelSlug, slug).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// SlugExists 判断 slug 是否已被其他链接占用
func (r *GormTrackingLinkRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.TrackingLink{}).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ShortCodeExists 判断短码是否已被其他链接占用
func (r *GormTrackingLinkRepository) ShortCodeExists(code string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.TrackingLink{}).Where("short_code = ?", code)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List 获取追踪链接列表
func (r *GormTrackingLinkRepository) List(filter TrackingLinkListFilter) ([]models.TrackingLink, int64, error) {
	query := r.db.Model(&models.TrackingLink{})

	if filter.FunnelID > 0 {
		query = query.Where("funnel_id = ?", filter.FunnelID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"name", "slug", "short_code"})
		if condition != "" {
			query = query.Where(condition, repeatLikeArgs("%"+search+"%", argCount)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.WithFunnel {
		query = query.Preload("Funnel")
	}
	links := make([]models.TrackingLink, 0)
	err := applyPagination(query, filter.Page, filter.PageSize).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// Create 创建追踪链接
func (r *GormTrackingLinkRepository) Create(link *models.TrackingLink) error {
	return r.db.Create(link).Error
}

// Update 更新追踪链接
func (r *GormTrackingLinkRepository) Update(link *models.TrackingLink) error {
	return r.db.Save(link).Error
}

// Delete 删除追踪链接并清理点击数据
func (r *GormTrackingLinkRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	_, err := r.DeleteBulk([]uint{id})
	return err
}

// DeleteBulk 批量删除追踪链接并清理点击数据
func (r *GormTrackingLinkRepository) DeleteBulk(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracking_link_id IN ?", ids).Delete(&models.LinkClick{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tracking_link_id IN ?", ids).Delete(&models.ConversionEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AffiliateUser{}).Where("tracking_link_id IN ?", ids).
			Update("tracking_link_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.TrackingLink{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
