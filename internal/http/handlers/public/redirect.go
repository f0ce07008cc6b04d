package public

import (
	"errors"
	"net/http"
	"strings"

	handlershared "github.com/coinvo/funnel-api/internal/http/handlers/shared"
	"github.com/coinvo/funnel-api/internal/models"
	"github.com/coinvo/funnel-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookieName   = "cv_session"
	sessionCookieMaxAge = 365 * 24 * 60 * 60
)

// RedirectShortCode 短码跳转：GET /l/:shortCode
func (h *Handler) RedirectShortCode(c *gin.Context) {
	link, err := h.LinkService.ResolveShortCode(c.Param("shortCode"))
	h.redirectResolved(c, link, err)
}

// RedirectSlug 单段路径跳转：GET /:funnelSlug
func (h *Handler) RedirectSlug(c *gin.Context) {
	link, err := h.LinkService.ResolveSlug(c.Param("funnelSlug"), "")
	h.redirectResolved(c, link, err)
}

// RedirectFunnelSlug 双段路径跳转：GET /:funnelSlug/:slug
func (h *Handler) RedirectFunnelSlug(c *gin.Context) {
	link, err := h.LinkService.ResolveSlug(c.Param("funnelSlug"), c.Param("slug"))
	h.redirectResolved(c, link, err)
}

// redirectResolved 统一处理解析结果：记录点击后 302 跳转。
// 过期链接返回 410 且不写入任何数据。
func (h *Handler) redirectResolved(c *gin.Context, link *models.TrackingLink, err error) {
	if err != nil {
		if errors.Is(err, service.ErrLinkExpired) {
			c.String(http.StatusGone, "link expired")
			return
		}
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrLinkInactive) {
			c.String(http.StatusNotFound, "link not found")
			return
		}
		handlershared.RequestLog(c).Errorw("redirect_resolve_failed", "error", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	target := h.LinkService.RedirectTarget(link)
	if target == "" {
		c.String(http.StatusNotFound, "link not found")
		return
	}

	sessionID := h.ensureSessionCookie(c)

	click, err := h.ClickService.Record(link, service.ClickInput{
		IPAddress:        c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
		Referrer:         c.Request.Referer(),
		SessionID:        sessionID,
		PageURL:          c.Request.URL.String(),
		UTMSource:        strings.TrimSpace(c.Query("utm_source")),
		UTMMedium:        strings.TrimSpace(c.Query("utm_medium")),
		UTMCampaign:      strings.TrimSpace(c.Query("utm_campaign")),
		UTMTerm:          strings.TrimSpace(c.Query("utm_term")),
		UTMContent:       strings.TrimSpace(c.Query("utm_content")),
		Country:          strings.TrimSpace(c.GetHeader("CF-IPCountry")),
		Language:         strings.TrimSpace(c.GetHeader("Accept-Language")),
		ScreenResolution: screenResolutionHint(c),
	}, target)
	if err != nil {
		// 点击记录失败不阻断跳转
		handlershared.RequestLog(c).Warnw("redirect_click_record_failed",
			"tracking_link_id", link.ID,
			"error", err,
		)
	} else if click != nil {
		handlershared.RequestLog(c).Debugw("redirect_click_recorded",
			"tracking_link_id", link.ID,
			"session_id", click.SessionID,
		)
	}

	c.Redirect(http.StatusFound, target)
}

// screenResolutionHint 从客户端提示头推断屏幕尺寸，缺失时返回空。
func screenResolutionHint(c *gin.Context) string {
	width := strings.TrimSpace(c.GetHeader("Sec-CH-Viewport-Width"))
	height := strings.TrimSpace(c.GetHeader("Sec-CH-Viewport-Height"))
	if width == "" {
		width = strings.TrimSpace(c.GetHeader("Viewport-Width"))
	}
	if width == "" {
		return ""
	}
	if height == "" {
		return width
	}
	return width + "x" + height
}

// ensureSessionCookie 读取会话 Cookie，缺失时生成并写回。
func (h *Handler) ensureSessionCookie(c *gin.Context) string {
	if value, err := c.Cookie(sessionCookieName); err == nil {
		if sessionID := strings.TrimSpace(value); sessionID != "" {
			return sessionID
		}
	}
	sessionID := uuid.NewString()
	c.SetCookie(sessionCookieName, sessionID, sessionCookieMaxAge, "/", "", false, true)
	return sessionID
}
