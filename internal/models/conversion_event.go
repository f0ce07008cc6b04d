package models

import (
	"time"
)

// ConversionEvent 转化事件表（只增不改）
type ConversionEvent struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                    // 主键
	TrackingLinkID uint      `gorm:"not null;index" json:"tracking_link_id"`                  // 追踪链接
	FunnelID       uint      `gorm:"not null;index" json:"funnel_id"`                         // 所属漏斗
	SessionID      string    `gorm:"type:varchar(64);index" json:"session_id"`                // 访客会话标识
	IPAddress      string    `gorm:"type:varchar(45)" json:"ip_address"`                      // 访客 IP
	EventType      string    `gorm:"type:varchar(30);not null;index" json:"event_type"`       // 事件类型（click/page_view/form_submit/purchase）
	EventCategory  string    `gorm:"type:varchar(30);not null;index" json:"event_category"`   // 事件分类（engagement/conversion）
	EventData      JSON      `gorm:"type:json" json:"event_data"`                             // 事件扩展数据
	PageURL        string    `gorm:"type:varchar(1000)" json:"page_url"`                      // 事件发生页面
	ReferrerURL    string    `gorm:"type:varchar(1000)" json:"referrer_url"`                  // 来源页
	UTMSource      string    `gorm:"type:varchar(255);index" json:"utm_source"`               // UTM 来源
	UTMMedium      string    `gorm:"type:varchar(255)" json:"utm_medium"`                     // UTM 媒介
	UTMCampaign    string    `gorm:"type:varchar(255)" json:"utm_campaign"`                   // UTM 活动
	UTMTerm        string    `gorm:"type:varchar(255)" json:"utm_term"`                       // UTM 关键词
	UTMContent     string    `gorm:"type:varchar(255)" json:"utm_content"`                    // UTM 内容
	StepNumber     int       `gorm:"not null;default:1;index" json:"step_number"`             // 漏斗步骤编号
	TimeSpent      int       `gorm:"not null;default:0" json:"time_spent"`                    // 页面停留秒数
	Revenue        Money     `gorm:"type:decimal(12,2);not null;default:0" json:"revenue"`    // 事件关联收入
	DeviceType     string    `gorm:"type:varchar(20);index" json:"device_type"`               // 设备类型
	Browser        string    `gorm:"type:varchar(50)" json:"browser"`                         // 浏览器
	OS             string    `gorm:"type:varchar(50)" json:"os"`                              // 操作系统
	Country        string    `gorm:"type:varchar(100)" json:"country"`                        // 国家
	City           string    `gorm:"type:varchar(100)" json:"city"`                           // 城市
	EventTimestamp time.Time `gorm:"not null;index" json:"event_timestamp"`                   // 事件时间
	CreatedAt      time.Time `json:"created_at"`                                              // 创建时间
}

// TableName 指定表名
func (ConversionEvent) TableName() string {
	return "conversion_events"
}
