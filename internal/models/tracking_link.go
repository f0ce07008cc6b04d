package models

import (
	"time"
)

// TrackingLink 追踪链接表
type TrackingLink struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                 // 主键
	FunnelID       uint       `gorm:"not null;index" json:"funnel_id"`                      // 所属漏斗
	Name           string     `gorm:"not null" json:"name"`                                 // 链接名称
	Source         string     `gorm:"type:varchar(100);not null;index" json:"source"`       // 流量来源标签
	Slug           string     `gorm:"uniqueIndex;not null" json:"slug"`                     // 唯一标识（公开路径段）
	ShortCode      string     `gorm:"type:varchar(16);uniqueIndex" json:"short_code"`       // 短码（/l/ 路径，可为空）
	IsActive       bool       `gorm:"not null;default:true;index" json:"is_active"`         // 是否启用
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at"`                              // 过期时间（空为长期有效）
	ClickCount     int64      `gorm:"not null;default:0" json:"click_count"`                // 累计点击数
	UniqueVisitors int64      `gorm:"not null;default:0" json:"unique_visitors"`            // 独立访客数
	LastClickedAt  *time.Time `json:"last_clicked_at"`                                      // 最近点击时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                           // 更新时间

	Funnel *Funnel `gorm:"foreignKey:FunnelID" json:"funnel,omitempty"` // 所属漏斗信息
}

// TableName 指定表名
func (TrackingLink) TableName() string {
	return "tracking_links"
}
