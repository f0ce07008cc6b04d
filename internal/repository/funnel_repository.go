package repository

import (
	"errors"

	"github.com/coinvo/funnel-api/internal/models"

	"gorm.io/gorm"
)

// FunnelRepository 漏斗数据访问接口
type FunnelRepository interface {
	GetByID(id uint) (*models.Funnel, error)
	GetBySlug(slug string) (*models.Funnel, error)
	List(withLinks bool) ([]models.Funnel, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	Create(funnel *models.Funnel) error
	Update(funnel *models.Funnel) error
	Delete(id uint) error
}

// GormFunnelRepository GORM 实现
type GormFunnelRepository struct {
	db *gorm.DB
}

// NewFunnelRepository 创建漏斗仓库
func NewFunnelRepository(db *gorm.DB) *GormFunnelRepository {
	return &GormFunnelRepository{db: db}
}

// GetByID 根据 ID 获取漏斗
func (r *GormFunnelRepository) GetByID(id uint) (*models.Funnel, error) {
	var funnel models.Funnel
	if err := r.db.First(&funnel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &funnel, nil
}

// GetBySlug 根据 slug 获取漏斗
func (r *GormFunnelRepository) GetBySlug(slug string) (*models.Funnel, error) {
	var funnel models.Funnel
	if err := r.db.Where("slug = ?", slug).First(&funnel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &funnel, nil
}

// List 获取漏斗列表，可选携带启用中的追踪链接
func (r *GormFunnelRepository) List(withLinks bool) ([]models.Funnel, error) {
	funnels := make([]models.Funnel, 0)
	query := r.db.Model(&models.Funnel{})
	if withLinks {
		query = query.Preload("TrackingLinks", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at DESC")
		})
	}
	if err := query.Order("created_at DESC").Find(&funnels).Error; err != nil {
		return nil, err
	}
	return funnels, nil
}

// SlugExists 判断 slug 是否已被其他漏斗占用
func (r *GormFunnelRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&models.Funnel{}).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建漏斗
func (r *GormFunnelRepository) Create(funnel *models.Funnel) error {
	return r.db.Create(funnel).Error
}

// Update 更新漏斗
func (r *GormFunnelRepository) Update(funnel *models.Funnel) error {
	return r.db.Save(funnel).Error
}

// Delete 删除漏斗并级联清理追踪链接与点击数据
func (r *GormFunnelRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var linkIDs []uint
		if err := tx.Model(&models.TrackingLink{}).Where("funnel_id = ?", id).Pluck("id", &linkIDs).Error; err != nil {
			return err
		}
		if len(linkIDs) > 0 {
			if err := tx.Where("tracking_link_id IN ?", linkIDs).Delete(&models.LinkClick{}).Error; err != nil {
				return err
			}
			if err := tx.Where("tracking_link_id IN ?", linkIDs).Delete(&models.ConversionEvent{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.AffiliateUser{}).Where("tracking_link_id IN ?", linkIDs).
				Update("tracking_link_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Where("funnel_id = ?", id).Delete(&models.TrackingLink{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Funnel{}, id).Error
	})
}
