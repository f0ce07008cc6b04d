package constants

// 管理员角色常量
const (
	AdminRoleSuperuser = "superuser"
	AdminRoleAdmin     = "admin"
	AdminRoleUser      = "user"
)

// 设备类型常量
const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
)

// 转化事件类型常量
const (
	EventTypeClick      = "click"
	EventTypePageView   = "page_view"
	EventTypeFormSubmit = "form_submit"
	EventTypePurchase   = "purchase"
)

// 转化事件分类常量
const (
	EventCategoryEngagement = "engagement"
	EventCategoryConversion = "conversion"
)

// 漏斗步骤编号常量
const (
	FunnelStepClick    = 1
	FunnelStepSignup   = 2
	FunnelStepDeposit  = 3
	FunnelStepRewarded = 4
)

// 漏斗阶段标签常量
const (
	FunnelStageClicked   = "clicked_link"
	FunnelStageSignedUp  = "signed_up"
	FunnelStageDeposited = "deposited"
	FunnelStageRewarded  = "reward_claimed"
)

// 奖励状态常量
const (
	RewardStatusPending     = "pending"
	RewardStatusClaimed     = "claimed"
	RewardStatusRejected    = "rejected"
	RewardStatusNotEligible = "not_eligible"
)

// 转化事件扩展字段允许的键
var ConversionEventDataKeys = []string{
	"redirect_target",
	"user_agent",
	"screen_resolution",
	"language",
	"tracking_link_slug",
	"funnel_name",
	"button_id",
	"form_name",
	"page_section",
	"value",
}

// 队列常量
const (
	QueueDefault         = "default"
	TaskClickAttribution = "click:attribution"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "cv"
)

// 邀请码默认值常量
const (
	InviteCodeDefault = "COINVO2024"
)
