package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"

	"github.com/shopspring/decimal"
)

// FunnelCreateInput 创建漏斗入参
type FunnelCreateInput struct {
	Name           string
	Slug           string
	Heading        string
	SubHeading     string
	ImageURL       string
	AffiliateURL   string
	BaseURL        string
	Platform       string
	EarningsAmount float64
	IsActive       *bool
}

// FunnelUpdateInput 更新漏斗入参（空指针表示不修改）
type FunnelUpdateInput struct {
	Name           *string
	Slug           *string
	Heading        *string
	SubHeading     *string
	ImageURL       *string
	AffiliateURL   *string
	BaseURL        *string
	Platform       *string
	EarningsAmount *float64
	IsActive       *bool
}

// FunnelService 漏斗管理服务
type FunnelService struct {
	funnelRepo repository.FunnelRepository
}

// NewFunnelService 创建漏斗管理服务
func NewFunnelService(funnelRepo repository.FunnelRepository) *FunnelService {
	return &FunnelService{funnelRepo: funnelRepo}
}

// recentLinksPerFunnel 列表中每个漏斗携带的最近链接数
const recentLinksPerFunnel = 5

// List 获取漏斗列表，携带最近的启用链接
func (s *FunnelService) List(withLinks bool) ([]models.Funnel, error) {
	funnels, err := s.funnelRepo.List(withLinks)
	if err != nil {
		return nil, err
	}
	for i := range funnels {
		if len(funnels[i].TrackingLinks) > recentLinksPerFunnel {
			funnels[i].TrackingLinks = funnels[i].TrackingLinks[:recentLinksPerFunnel]
		}
	}
	return funnels, nil
}

// Get 获取单个漏斗
func (s *FunnelService) Get(id uint) (*models.Funnel, error) {
	funnel, err := s.funnelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, ErrNotFound
	}
	return funnel, nil
}

// Create 创建漏斗
func (s *FunnelService) Create(input FunnelCreateInput) (*models.Funnel, error) {
	name := strings.TrimSpace(input.Name)
	heading := strings.TrimSpace(input.Heading)
	platform := strings.TrimSpace(input.Platform)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if heading == "" {
		return nil, fmt.Errorf("%w: heading is required", ErrInvalidInput)
	}
	if platform == "" {
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidInput)
	}
	if err := validateHTTPURL(input.AffiliateURL, true); err != nil {
		return nil, fmt.Errorf("%w: affiliate_url invalid", ErrInvalidInput)
	}
	if err := validateHTTPURL(input.BaseURL, false); err != nil {
		return nil, fmt.Errorf("%w: base_url invalid", ErrInvalidInput)
	}
	if input.EarningsAmount < 0 {
		return nil, fmt.Errorf("%w: earnings_amount must be >= 0", ErrInvalidInput)
	}

	slug := sanitizeSlug(input.Slug)
	if slug == "" {
		slug = sanitizeSlug(name)
	}
	if slug == "" {
		slug = randomSlugToken(6)
	}
	exists, err := s.funnelRepo.SlugExists(slug, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	funnel := &models.Funnel{
		Name:                    name,
		Slug:                    slug,
		Heading:                 heading,
		SubHeading:              strings.TrimSpace(input.SubHeading),
		ImageURL:                strings.TrimSpace(input.ImageURL),
		AffiliateURL:            strings.TrimSpace(input.AffiliateURL),
		BaseURL:                 strings.TrimSpace(input.BaseURL),
		AffiliateEarningsAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(input.EarningsAmount)),
		Platform:                platform,
		IsActive:                isActive,
	}
	if err := s.funnelRepo.Create(funnel); err != nil {
		return nil, err
	}
	return funnel, nil
}

// Update 更新漏斗
func (s *FunnelService) Update(id uint, input FunnelUpdateInput) (*models.Funnel, error) {
	funnel, err := s.funnelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		funnel.Name = name
	}
	if input.Heading != nil {
		heading := strings.TrimSpace(*input.Heading)
		if heading == "" {
			return nil, fmt.Errorf("%w: heading is required", ErrInvalidInput)
		}
		funnel.Heading = heading
	}
	if input.SubHeading != nil {
		funnel.SubHeading = strings.TrimSpace(*input.SubHeading)
	}
	if input.ImageURL != nil {
		if err := validateHTTPURL(*input.ImageURL, false); err != nil {
			return nil, fmt.Errorf("%w: image_url invalid", ErrInvalidInput)
		}
		funnel.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.AffiliateURL != nil {
		if err := validateHTTPURL(*input.AffiliateURL, true); err != nil {
			return nil, fmt.Errorf("%w: affiliate_url invalid", ErrInvalidInput)
		}
		funnel.AffiliateURL = strings.TrimSpace(*input.AffiliateURL)
	}
	if input.BaseURL != nil {
		if err := validateHTTPURL(*input.BaseURL, false); err != nil {
			return nil, fmt.Errorf("%w: base_url invalid", ErrInvalidInput)
		}
		funnel.BaseURL = strings.TrimSpace(*input.BaseURL)
	}
	if input.Platform != nil {
		platform := strings.TrimSpace(*input.Platform)
		if platform == "" {
			return nil, fmt.Errorf("%w: platform is required", ErrInvalidInput)
		}
		funnel.Platform = platform
	}
	if input.EarningsAmount != nil {
		if *input.EarningsAmount < 0 {
			return nil, fmt.Errorf("%w: earnings_amount must be >= 0", ErrInvalidInput)
		}
		funnel.AffiliateEarningsAmount = models.NewMoneyFromDecimal(decimal.NewFromFloat(*input.EarningsAmount))
	}
	if input.Slug != nil {
		slug := sanitizeSlug(*input.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug invalid", ErrInvalidInput)
		}
		exists, err := s.funnelRepo.SlugExists(slug, funnel.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrSlugExists
		}
		funnel.Slug = slug
	}
	if input.IsActive != nil {
		funnel.IsActive = *input.IsActive
	}

	if err := s.funnelRepo.Update(funnel); err != nil {
		return nil, err
	}
	return funnel, nil
}

// Delete 删除漏斗（级联清理链接与点击数据）
func (s *FunnelService) Delete(id uint) error {
	funnel, err := s.funnelRepo.GetByID(id)
	if err != nil {
		return err
	}
	if funnel == nil {
		return ErrNotFound
	}
	return s.funnelRepo.Delete(id)
}

// validateHTTPURL 校验 http/https 链接格式
func validateHTTPURL(raw string, required bool) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if required {
			return ErrInvalidInput
		}
		return nil
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return ErrInvalidInput
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidInput
	}
	if parsed.Host == "" {
		return ErrInvalidInput
	}
	return nil
}
