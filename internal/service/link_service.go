package service

import (
	"strings"

	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
)

// reservedPathSegments 公开跳转路径中不允许被 slug 占用的首段
var reservedPathSegments = map[string]struct{}{
	"api":     {},
	"l":       {},
	"healthz": {},
	"health":  {},
	"uploads": {},
}

// LinkService 链接解析服务
type LinkService struct {
	linkRepo repository.TrackingLinkRepository
}

// NewLinkService 创建链接解析服务
func NewLinkService(linkRepo repository.TrackingLinkRepository) *LinkService {
	return &LinkService{linkRepo: linkRepo}
}

// IsReservedSegment 判断路径段是否为保留段
func IsReservedSegment(segment string) bool {
	_, ok := reservedPathSegments[strings.ToLower(strings.TrimSpace(segment))]
	return ok
}

// ResolveShortCode 根据短码解析追踪链接
func (s *LinkService) ResolveShortCode(code string) (*models.TrackingLink, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	link, err := s.linkRepo.GetByShortCode(code)
	if err != nil {
		return nil, err
	}
	return s.validateResolved(link)
}

// ResolveSlug 按优先级解析公开路径：漏斗 slug + 链接 slug，其次裸链接 slug。
// 保留段不参与解析，避免遮蔽控制台与接口路径。
func (s *LinkService) ResolveSlug(funnelSlug, slug string) (*models.TrackingLink, error) {
	funnelSlug = strings.TrimSpace(funnelSlug)
	slug = strings.TrimSpace(slug)
	if IsReservedSegment(funnelSlug) {
		return nil, ErrNotFound
	}

	if funnelSlug != "" && slug != "" {
		link, err := s.linkRepo.GetByFunnelSlugAndSlug(funnelSlug, slug)
		if err != nil {
			return nil, err
		}
		if link != nil {
			return s.validateResolved(link)
		}
		return nil, ErrNotFound
	}

	if funnelSlug == "" {
		return nil, ErrNotFound
	}

	// 单段路径按裸链接 slug 解析
	link, err := s.linkRepo.GetBySlug(funnelSlug)
	if err != nil {
		return nil, err
	}
	return s.validateResolved(link)
}

// RedirectTarget 计算跳转目标：优先漏斗 base_url，其次 affiliate_url。
func (s *LinkService) RedirectTarget(link *models.TrackingLink) string {
	if link == nil || link.Funnel == nil {
		return ""
	}
	if target := strings.TrimSpace(link.Funnel.BaseURL); target != "" {
		return target
	}
	return strings.TrimSpace(link.Funnel.AffiliateURL)
}

// validateResolved 校验解析结果：缺失或停用按未找到处理，过期单独上报。
func (s *LinkService) validateResolved(link *models.TrackingLink) (*models.TrackingLink, error) {
	if link == nil {
		return nil, ErrNotFound
	}
	if !link.IsActive {
		return nil, ErrLinkInactive
	}
	if link.Funnel == nil || !link.Funnel.IsActive {
		return nil, ErrNotFound
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(nowFunc()) {
		return nil, ErrLinkExpired
	}
	return link, nil
}
