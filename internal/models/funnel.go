package models

import (
	"time"
)

// Funnel 落地页漏斗表
type Funnel struct {
	ID                      uint      `gorm:"primarykey" json:"id"`                                           // 主键
	Name                    string    `gorm:"not null" json:"name"`                                           // 漏斗名称
	Slug                    string    `gorm:"uniqueIndex;not null" json:"slug"`                               // 唯一标识（公开路径段）
	Heading                 string    `gorm:"type:varchar(500);not null" json:"heading"`                      // 落地页主标题
	SubHeading              string    `gorm:"type:varchar(1000)" json:"sub_heading"`                          // 落地页副标题
	ImageURL                string    `gorm:"type:varchar(500)" json:"image_url"`                             // 落地页图片
	AffiliateURL            string    `gorm:"type:varchar(1000);not null" json:"affiliate_url"`               // 推广目标链接
	BaseURL                 string    `gorm:"type:varchar(1000)" json:"base_url"`                             // 跳转优先使用的基础链接
	AffiliateEarningsAmount Money     `gorm:"type:decimal(12,2);not null;default:0" json:"earnings_amount"`   // 单用户奖励金额
	Platform                string    `gorm:"type:varchar(50);not null;index" json:"platform"`                // 交易平台标识
	IsActive                bool      `gorm:"not null;default:true;index" json:"is_active"`                   // 是否启用
	CreatedAt               time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt               time.Time `json:"updated_at"`                                                     // 更新时间

	TrackingLinks []TrackingLink `gorm:"foreignKey:FunnelID" json:"tracking_links,omitempty"` // 关联的追踪链接
}

// TableName 指定表名
func (Funnel) TableName() string {
	return "funnels"
}
