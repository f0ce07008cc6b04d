package queue

import (
	"encoding/json"
	"time"

	"github.com/coinvo/funnel-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskClickAttribution 点击归因回填任务
	TaskClickAttribution = constants.TaskClickAttribution
)

// ClickAttributionPayload 点击归因回填任务载荷
type ClickAttributionPayload struct {
	TrackingLinkID uint      `json:"tracking_link_id"`
	Source         string    `json:"source"`
	SessionID      string    `json:"session_id"`
	ClickedAt      time.Time `json:"clicked_at"`
}

// NewClickAttributionTask 创建点击归因回填任务
func NewClickAttributionTask(payload ClickAttributionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClickAttribution, body), nil
}
