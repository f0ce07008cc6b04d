package models

import (
	"time"
)

// AffiliateUser 推广归因用户表
type AffiliateUser struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                                // 主键
	UID              string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"uid"`                    // 平台用户标识
	Platform         string     `gorm:"type:varchar(50);not null;index" json:"platform"`                     // 交易平台标识
	TrackingLinkID   *uint      `gorm:"index" json:"tracking_link_id"`                                       // 归因到的追踪链接（可为空）
	TrafficSource    string     `gorm:"type:varchar(100);index" json:"traffic_source"`                       // 流量来源标签
	SessionID        string     `gorm:"type:varchar(64);index" json:"session_id"`                            // 注册时携带的会话标识
	RegisterTime     *time.Time `gorm:"index" json:"register_time"`                                          // 注册时间
	FunnelClickedAt  *time.Time `gorm:"index" json:"funnel_clicked_at"`                                      // 归因点击时间
	InviteCode       string     `gorm:"type:varchar(50);index" json:"invite_code"`                           // 注册使用的邀请码
	FirstDepositTime *time.Time `json:"first_deposit_time"`                                                  // 首次入金时间
	LastDepositTime  *time.Time `json:"last_deposit_time"`                                                   // 最近入金时间
	FirstTradeTime   *time.Time `json:"first_trade_time"`                                                    // 首次交易时间
	LastTradeTime    *time.Time `json:"last_trade_time"`                                                     // 最近交易时间
	FunnelStep       string     `gorm:"type:varchar(30);index" json:"funnel_step"`                           // 当前漏斗阶段标签
	Step1CompletedAt *time.Time `gorm:"index" json:"step1_completed_at"`                                     // 步骤一（注册）完成时间
	Step2CompletedAt *time.Time `gorm:"index" json:"step2_completed_at"`                                     // 步骤二（入金）完成时间
	Step3CompletedAt *time.Time `gorm:"index" json:"step3_completed_at"`                                     // 步骤三（奖励）完成时间
	DepositAmount    Money      `gorm:"type:decimal(12,2);not null;default:0" json:"deposit_amount"`         // 累计入金金额
	RewardStatus     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"reward_status"` // 奖励状态
	Notes            string     `gorm:"type:varchar(1000)" json:"notes"`                                     // 备注
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                          // 更新时间

	TrackingLink *TrackingLink `gorm:"foreignKey:TrackingLinkID;constraint:OnDelete:SET NULL" json:"tracking_link,omitempty"` // 归因链接信息
}

// TableName 指定表名
func (AffiliateUser) TableName() string {
	return "affiliate_users"
}
