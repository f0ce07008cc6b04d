package worker

import (
	"context"
	"encoding/json"

	"github.com/coinvo/funnel-api/internal/logger"
	"github.com/coinvo/funnel-api/internal/provider"
	"github.com/coinvo/funnel-api/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskClickAttribution, c.handleClickAttribution)
}

func (c *Consumer) handleClickAttribution(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_click_attribution_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ClickAttributionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_click_attribution_unmarshal_failed", "error", err)
		return err
	}
	if payload.TrackingLinkID == 0 || payload.SessionID == "" {
		logger.Debugw("worker_click_attribution_skip_invalid_payload",
			"tracking_link_id", payload.TrackingLinkID,
			"session_id", payload.SessionID,
		)
		return nil
	}
	if c.AffiliateUserService == nil {
		logger.Warnw("worker_click_attribution_skip_service_nil", "tracking_link_id", payload.TrackingLinkID)
		return nil
	}
	stamped, err := c.AffiliateUserService.ApplyClickAttribution(
		payload.SessionID,
		payload.TrackingLinkID,
		payload.Source,
		payload.ClickedAt,
	)
	if err != nil {
		logger.Warnw("worker_click_attribution_failed",
			"tracking_link_id", payload.TrackingLinkID,
			"session_id", payload.SessionID,
			"error", err,
		)
		return err
	}
	if stamped > 0 {
		logger.Infow("worker_click_attribution_stamped",
			"tracking_link_id", payload.TrackingLinkID,
			"session_id", payload.SessionID,
			"rows", stamped,
		)
	}
	return nil
}
