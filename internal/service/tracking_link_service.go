package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
)

const (
	slugSuffixLength     = 4
	slugRandomLength     = 6
	shortCodeLength      = 6
	slugGenerateAttempts = 5
	analyticsTopLimit    = 10
	analyticsRecentLimit = 20
)

// TrackingLinkCreateInput 创建追踪链接入参
type TrackingLinkCreateInput struct {
	FunnelID  uint
	Name      string
	Source    string
	Slug      string
	ShortCode string
	IsActive  *bool
	ExpiresAt *time.Time
}

// TrackingLinkUpdateInput 更新追踪链接入参（空指针表示不修改）
type TrackingLinkUpdateInput struct {
	Name      *string
	Source    *string
	Slug      *string
	IsActive  *bool
	ExpiresAt *time.Time
	// ClearExpiresAt 为 true 时清空过期时间
	ClearExpiresAt bool
}

// TrackingLinkListInput 查询追踪链接列表入参
type TrackingLinkListInput struct {
	Page     int
	PageSize int
	FunnelID uint
	Source   string
	Search   string
	IsActive *bool
}

// TrackingLinkAnalytics 单链接分析数据
type TrackingLinkAnalytics struct {
	TrackingLinkID  uint                    `json:"tracking_link_id"`
	TotalClicks     int64                   `json:"total_clicks"`
	UniqueVisitors  int64                   `json:"unique_visitors"`
	ClicksToday     int64                   `json:"clicks_today"`
	ClicksThisWeek  int64                   `json:"clicks_this_week"`
	ClicksThisMonth int64                   `json:"clicks_this_month"`
	TopCountries    []repository.CountryStat `json:"top_countries"`
	Devices         []repository.DeviceStat  `json:"devices"`
	RecentClicks    []models.LinkClick       `json:"recent_clicks"`
}

// TrackingLinkService 追踪链接管理服务
type TrackingLinkService struct {
	linkRepo   repository.TrackingLinkRepository
	funnelRepo repository.FunnelRepository
	clickRepo  repository.ClickRepository
}

// NewTrackingLinkService 创建追踪链接管理服务
func NewTrackingLinkService(
	linkRepo repository.TrackingLinkRepository,
	funnelRepo repository.FunnelRepository,
	clickRepo repository.ClickRepository,
) *TrackingLinkService {
	return &TrackingLinkService{
		linkRepo:   linkRepo,
		funnelRepo: funnelRepo,
		clickRepo:  clickRepo,
	}
}

// List 获取追踪链接列表
func (s *TrackingLinkService) List(input TrackingLinkListInput) ([]models.TrackingLink, int64, error) {
	return s.linkRepo.List(repository.TrackingLinkListFilter{
		Page:       input.Page,
		PageSize:   input.PageSize,
		FunnelID:   input.FunnelID,
		Source:     strings.TrimSpace(input.Source),
		Search:     input.Search,
		IsActive:   input.IsActive,
		WithFunnel: true,
	})
}

// Get 获取单个追踪链接
func (s *TrackingLinkService) Get(id uint) (*models.TrackingLink, error) {
	link, err := s.linkRepo.GetWithFunnelByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

// Create 创建追踪链接，slug 与短码缺省时自动生成
func (s *TrackingLinkService) Create(input TrackingLinkCreateInput) (*models.TrackingLink, error) {
	name := strings.TrimSpace(input.Name)
	source := strings.TrimSpace(input.Source)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidInput)
	}

	funnel, err := s.funnelRepo.GetByID(input.FunnelID)
	if err != nil {
		return nil, err
	}
	if funnel == nil {
		return nil, fmt.Errorf("%w: funnel not found", ErrInvalidInput)
	}

	slug, err := s.resolveSlug(input.Slug, source, 0)
	if err != nil {
		return nil, err
	}
	shortCode, err := s.resolveShortCode(input.ShortCode, 0)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	link := &models.TrackingLink{
		FunnelID:  funnel.ID,
		Name:      name,
		Source:    source,
		Slug:      slug,
		ShortCode: shortCode,
		IsActive:  isActive,
		ExpiresAt: input.ExpiresAt,
	}
	if err := s.linkRepo.Create(link); err != nil {
		return nil, err
	}
	return link, nil
}

// Update 更新追踪链接
func (s *TrackingLinkService) Update(id uint, input TrackingLinkUpdateInput) (*models.TrackingLink, error) {
	link, err := s.linkRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		link.Name = name
	}
	if input.Source != nil {
		source := strings.TrimSpace(*input.Source)
		if source == "" {
			return nil, fmt.Errorf("%w: source is required", ErrInvalidInput)
		}
		link.Source = source
	}
	if input.Slug != nil {
		slug := sanitizeSlug(*input.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug invalid", ErrInvalidInput)
		}
		exists, err := s.linkRepo.SlugExists(slug, link.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrSlugExists
		}
		link.Slug = slug
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.ClearExpiresAt {
		link.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}

	if err := s.linkRepo.Update(link); err != nil {
		return nil, err
	}
	return link, nil
}

// Toggle 切换追踪链接启用状态
func (s *TrackingLinkService) Toggle(id uint) (*models.TrackingLink, error) {
	link, err := s.linkRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	link.IsActive = !link.IsActive
	if err := s.linkRepo.Update(link); err != nil {
		return nil, err
	}
	return link, nil
}

// Delete 删除追踪链接
func (s *TrackingLinkService) Delete(id uint) error {
	link, err := s.linkRepo.GetByID(id)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrNotFound
	}
	return s.linkRepo.Delete(id)
}

// BulkDelete 批量删除追踪链接，返回删除数量
func (s *TrackingLinkService) BulkDelete(ids []uint) (int64, error) {
	cleaned := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("%w: ids required", ErrInvalidInput)
	}
	return s.linkRepo.DeleteBulk(cleaned)
}

// Analytics 获取单链接分析数据
func (s *TrackingLinkService) Analytics(id uint) (*TrackingLinkAnalytics, error) {
	link, err := s.linkRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}

	now := nowFunc()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)
	monthStart := now.AddDate(0, -1, 0)

	total, err := s.clickRepo.CountClicks(link.ID, nil)
	if err != nil {
		return nil, err
	}
	uniqueVisitors, err := s.clickRepo.CountDistinctVisitors(link.ID)
	if err != nil {
		return nil, err
	}
	today, err := s.clickRepo.CountClicks(link.ID, &todayStart)
	if err != nil {
		return nil, err
	}
	week, err := s.clickRepo.CountClicks(link.ID, &weekStart)
	if err != nil {
		return nil, err
	}
	month, err := s.clickRepo.CountClicks(link.ID, &monthStart)
	if err != nil {
		return nil, err
	}
	countries, err := s.clickRepo.TopCountries(link.ID, analyticsTopLimit)
	if err != nil {
		return nil, err
	}
	devices, err := s.clickRepo.DeviceCounts(link.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.clickRepo.RecentClicks(link.ID, analyticsRecentLimit)
	if err != nil {
		return nil, err
	}

	return &TrackingLinkAnalytics{
		TrackingLinkID:  link.ID,
		TotalClicks:     total,
		UniqueVisitors:  uniqueVisitors,
		ClicksToday:     today,
		ClicksThisWeek:  week,
		ClicksThisMonth: month,
		TopCountries:    countries,
		Devices:         devices,
		RecentClicks:    recent,
	}, nil
}

// resolveSlug 处理 slug 的清洗、生成与唯一性校验
func (s *TrackingLinkService) resolveSlug(raw, source string, excludeID uint) (string, error) {
	if provided := sanitizeSlug(raw); provided != "" {
		exists, err := s.linkRepo.SlugExists(provided, excludeID)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrSlugExists
		}
		return provided, nil
	}

	sourceSlug := sanitizeSlug(source)
	for attempt := 0; attempt < slugGenerateAttempts; attempt++ {
		candidate := randomSlugToken(slugRandomLength)
		if sourceSlug != "" {
			candidate = sourceSlug + "-" + randomSlugToken(slugSuffixLength)
		}
		exists, err := s.linkRepo.SlugExists(candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrSlugExists
}

// resolveShortCode 处理短码的生成与唯一性校验
func (s *TrackingLinkService) resolveShortCode(raw string, excludeID uint) (string, error) {
	if provided := strings.TrimSpace(raw); provided != "" {
		exists, err := s.linkRepo.ShortCodeExists(provided, excludeID)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrShortCodeExists
		}
		return provided, nil
	}

	for attempt := 0; attempt < slugGenerateAttempts; attempt++ {
		candidate := randomSlugToken(shortCodeLength)
		exists, err := s.linkRepo.ShortCodeExists(candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrShortCodeExists
}
