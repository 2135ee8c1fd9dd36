package handler

import (
	"errors"
	"net/http"
	"time"

	"quicklink/internal/service"

	"github.com/gin-gonic/gin"
)

// URLHandler 处理器
type URLHandler struct {
	service *service.ShortenerService
}

// NewURLHandler 创建处理器实例
func NewURLHandler(svc *service.ShortenerService) *URLHandler {
	return &URLHandler{service: svc}
}

// HealthCheck 健康检查
func (h *URLHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ShortenRequest 创建短链接的请求体
type ShortenRequest struct {
	URL string `json:"url" binding:"required"`
}

// ShortenResponse 创建短链接的响应体
type ShortenResponse struct {
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
}

// CreateShortURL 为长 URL 创建（或复用）短链接
// POST /api/shorten
func (h *URLHandler) CreateShortURL(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 url 字段或请求体格式错误"})
		return
	}

	mapping, err := h.service.Shorten(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 URL，必须是 http/https 绝对地址"})
		case errors.Is(err, service.ErrAllocationExhausted):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "短码分配失败，请稍后重试"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		}
		return
	}

	c.JSON(http.StatusOK, ShortenResponse{
		ShortURL:    h.service.ShortURL(mapping.ShortCode),
		OriginalURL: mapping.OriginalURL,
	})
}

// Redirect 将短码 301 重定向到原始 URL
// GET /:code
func (h *URLHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "短链接不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}

	c.Redirect(http.StatusMovedPermanently, originalURL)
}

// ListURLs 返回全部短链接，按创建时间倒序
// GET /api/urls
func (h *URLHandler) ListURLs(c *gin.Context) {
	mappings, err := h.service.ListMappings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取链接列表失败"})
		return
	}
	c.JSON(http.StatusOK, mappings)
}

// GetStats 返回全局统计
// GET /api/stats
func (h *URLHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取统计数据失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
