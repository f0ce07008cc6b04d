package repository

// TrackingLinkListFilter 查询追踪链接列表的过滤条件
type TrackingLinkListFilter struct {
	Page       int
	PageSize   int
	FunnelID   uint
	Source     string
	Search     string
	IsActive   *bool
	WithFunnel bool
}

// AffiliateUserListFilter 查询推广用户列表的过滤条件
type AffiliateUserListFilter struct {
	Page       int
	PageSize   int
	Platform   string
	InviteCode string
	Search     string
	HasDeposit *bool
}

// AdminListFilter 查询系统用户列表的过滤条件
type AdminListFilter struct {
	Page     int
	PageSize int
	Search   string
	Role     string
	Roles    []string
}
