package service

import (
	"github.com/coinvo/funnel-api/internal/constants"
	"github.com/coinvo/funnel-api/internal/logger"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/queue"
	"github.com/coinvo/funnel-api/internal/repository"

	"github.com/google/uuid"
)

// ClickInput 点击记录入参
type ClickInput struct {
	IPAddress        string
	UserAgent        string
	Referrer         string
	SessionID        string
	PageURL          string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	UTMTerm          string
	UTMContent       string
	Country          string
	City             string
	Language         string
	ScreenResolution string
}

// ClickService 点击记录服务
type ClickService struct {
	clickRepo   repository.ClickRepository
	queueClient *queue.Client
}

// NewClickService 创建点击记录服务
func NewClickService(clickRepo repository.ClickRepository, queueClient *queue.Client) *ClickService {
	return &ClickService{
		clickRepo:   clickRepo,
		queueClient: queueClient,
	}
}

// Record 记录一次追踪链接点击：写入点击与转化事件并更新计数，单事务完成。
// 入队的归因回填任务失败不影响跳转。
func (s *ClickService) Record(link *models.TrackingLink, input ClickInput, redirectTarget string) (*models.LinkClick, error) {
	if link == nil {
		return nil, ErrNotFound
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	deviceType, browser, os := parseUserAgent(input.UserAgent)
	now := nowFunc()

	unique, err := s.clickRepo.HasPriorClick(link.ID, sessionID, input.IPAddress)
	if err != nil {
		return nil, err
	}

	click := &models.LinkClick{
		TrackingLinkID: link.ID,
		FunnelID:       link.FunnelID,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		DeviceType:     deviceType,
		Browser:        browser,
		OS:             os,
		Referrer:       input.Referrer,
		Country:        input.Country,
		City:           input.City,
		SessionID:      sessionID,
		ClickedAt:      now,
	}

	funnelName := ""
	if link.Funnel != nil {
		funnelName = link.Funnel.Name
	}
	eventData := models.JSON{
		"redirect_target":    redirectTarget,
		"user_agent":         input.UserAgent,
		"screen_resolution":  input.ScreenResolution,
		"language":           input.Language,
		"tracking_link_slug": link.Slug,
		"funnel_name":        funnelName,
	}

	event := &models.ConversionEvent{
		TrackingLinkID: link.ID,
		FunnelID:       link.FunnelID,
		SessionID:      sessionID,
		IPAddress:      input.IPAddress,
		EventType:      constants.EventTypeClick,
		EventCategory:  constants.EventCategoryEngagement,
		EventData:      filterEventData(eventData),
		PageURL:        input.PageURL,
		ReferrerURL:    input.Referrer,
		UTMSource:      input.UTMSource,
		UTMMedium:      input.UTMMedium,
		UTMCampaign:    input.UTMCampaign,
		UTMTerm:        input.UTMTerm,
		UTMContent:     input.UTMContent,
		StepNumber:     constants.FunnelStepClick,
		DeviceType:     deviceType,
		Browser:        browser,
		OS:             os,
		Country:        input.Country,
		City:           input.City,
		EventTimestamp: now,
	}

	if err := s.clickRepo.RecordClick(click, event, !unique); err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		payload := queue.ClickAttributionPayload{
			TrackingLinkID: link.ID,
			Source:         link.Source,
			SessionID:      sessionID,
			ClickedAt:      now,
		}
		if err := s.queueClient.EnqueueClickAttribution(payload); err != nil {
			logger.Warnw("click_attribution_enqueue_failed", "error", err, "tracking_link_id", link.ID)
		}
	}

	return click, nil
}

// filterEventData 只保留约定的扩展字段键
func filterEventData(data models.JSON) models.JSON {
	if len(data) == 0 {
		return models.JSON{}
	}
	filtered := models.JSON{}
	for _, key := range constants.ConversionEventDataKeys {
		if value, ok := data[key]; ok {
			filtered[key] = value
		}
	}
	return filtered
}
