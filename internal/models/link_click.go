package models

import (
	"time"
)

// LinkClick 链接点击记录表（只增不改）
type LinkClick struct {
	ID             uint      `gorm:"primarykey" json:"id"`                           // 主键
	TrackingLinkID uint      `gorm:"not null;index" json:"tracking_link_id"`         // 追踪链接
	FunnelID       uint      `gorm:"not null;index" json:"funnel_id"`                // 所属漏斗（冗余，便于聚合）
	IPAddress      string    `gorm:"type:varchar(45);index" json:"ip_address"`       // 访客 IP
	UserAgent      string    `gorm:"type:varchar(500)" json:"user_agent"`            // User-Agent 原文
	DeviceType     string    `gorm:"type:varchar(20);index" json:"device_type"`      // 设备类型（mobile/tablet/desktop）
	Browser        string    `gorm:"type:varchar(50)" json:"browser"`                // 浏览器
	OS             string    `gorm:"type:varchar(50)" json:"os"`                     // 操作系统
	Referrer       string    `gorm:"type:varchar(1000)" json:"referrer"`             // 来源页
	Country        string    `gorm:"type:varchar(100);index" json:"country"`         // 国家
	City           string    `gorm:"type:varchar(100)" json:"city"`                  // 城市
	SessionID      string    `gorm:"type:varchar(64);index" json:"session_id"`       // 访客会话标识
	ClickedAt      time.Time `gorm:"not null;index" json:"clicked_at"`               // 点击时间
	CreatedAt      time.Time `json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (LinkClick) TableName() string {
	return "link_clicks"
}
