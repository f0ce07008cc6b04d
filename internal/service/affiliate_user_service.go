package service

import (
	"strings"
	"time"

	"github.com/coinvo/funnel-api/internal/config"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/repository"
)

// AffiliateListInput 查询自有推广用户入参
type AffiliateListInput struct {
	Page       int
	PageSize   int
	Platform   string
	Search     string
	HasDeposit *bool
}

// AffiliateUserListInput 查询全量推广用户入参
type AffiliateUserListInput struct {
	Page         int
	PageSize     int
	Platform     string
	InviteCode   string
	Search       string
	OurUsersOnly *bool
}

// AffiliateUserService 推广用户服务
type AffiliateUserService struct {
	cfg      *config.Config
	userRepo repository.AffiliateUserRepository
}

// NewAffiliateUserService 创建推广用户服务
func NewAffiliateUserService(cfg *config.Config, userRepo repository.AffiliateUserRepository) *AffiliateUserService {
	return &AffiliateUserService{cfg: cfg, userRepo: userRepo}
}

// InviteCode 返回本站邀请码
func (s *AffiliateUserService) InviteCode() string {
	if s.cfg != nil {
		return strings.TrimSpace(s.cfg.Affiliate.InviteCode)
	}
	return ""
}

// ListAffiliates 查询本站邀请码下的推广用户及头部统计
func (s *AffiliateUserService) ListAffiliates(input AffiliateListInput) ([]models.AffiliateUser, int64, *repository.AffiliateUserStats, error) {
	filter := repository.AffiliateUserListFilter{
		Page:       input.Page,
		PageSize:   input.PageSize,
		Platform:   strings.TrimSpace(input.Platform),
		InviteCode: s.InviteCode(),
		Search:     input.Search,
		HasDeposit: input.HasDeposit,
	}

	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, 0, nil, err
	}

	// 头部统计不受入金与搜索过滤影响
	stats, err := s.userRepo.Stats(repository.AffiliateUserListFilter{
		Platform:   filter.Platform,
		InviteCode: filter.InviteCode,
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return users, total, stats, nil
}

// ListUsers 查询推广用户，our_users_only 缺省只看本站邀请码
func (s *AffiliateUserService) ListUsers(input AffiliateUserListInput) ([]models.AffiliateUser, int64, *repository.AffiliateUserStats, error) {
	inviteCode := strings.TrimSpace(input.InviteCode)
	ourUsersOnly := true
	if input.OurUsersOnly != nil {
		ourUsersOnly = *input.OurUsersOnly
	}
	if ourUsersOnly {
		inviteCode = s.InviteCode()
	}

	filter := repository.AffiliateUserListFilter{
		Page:       input.Page,
		PageSize:   input.PageSize,
		Platform:   strings.TrimSpace(input.Platform),
		InviteCode: inviteCode,
		Search:     input.Search,
	}

	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, 0, nil, err
	}

	stats, err := s.userRepo.Stats(repository.AffiliateUserListFilter{
		Platform:   filter.Platform,
		InviteCode: filter.InviteCode,
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return users, total, stats, nil
}

// ApplyClickAttribution 将点击归因回填到同会话且未归因的推广用户。
// 已有 funnel_clicked_at 的记录不会被覆盖，重复执行是幂等的。
func (s *AffiliateUserService) ApplyClickAttribution(sessionID string, linkID uint, source string, clickedAt time.Time) (int64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || linkID == 0 {
		return 0, nil
	}
	return s.userRepo.StampAttribution(sessionID, linkID, source, clickedAt)
}
