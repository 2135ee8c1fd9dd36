package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quicklink/internal/model"
	"quicklink/internal/service"
	"quicklink/internal/shortcode"
	"quicklink/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest 为集成测试初始化一个干净的环境，返回配置好的 gin.Engine
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "无法连接到内存数据库")

	// 内存模式下每个连接是独立的数据库，限制连接池确保读写同一份数据
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.URLMapping{}), "数据库迁移失败")

	st := store.NewGormStore(db)
	t.Cleanup(func() { _ = st.Close() })

	// 测试中不依赖 Redis，传入 nil 即可
	zl, _ := zap.NewDevelopment()
	svc := service.NewShortenerService(st, shortcode.NewGenerator(), nil, "http://localhost:8080", zl.Sugar())
	h := NewURLHandler(svc)

	router := gin.New()
	router.POST("/api/shorten", h.CreateShortURL)
	router.GET("/api/health", h.HealthCheck)
	router.GET("/api/urls", h.ListURLs)
	router.GET("/api/stats", h.GetStats)
	router.GET("/:code", h.Redirect)
	return router
}

func postShorten(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/api/shorten", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestShortenAndRedirect 测试创建和重定向的完整流程
func TestShortenAndRedirect(t *testing.T) {
	router := setupTest(t)

	originalURL := "https://www.example.com/very/long/path/that/needs/shortening"
	w := postShorten(t, router, `{"url":"`+originalURL+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, originalURL, resp.OriginalURL)
	assert.True(t, strings.HasPrefix(resp.ShortURL, "http://localhost:8080/"))

	code := strings.TrimPrefix(resp.ShortURL, "http://localhost:8080/")
	require.Len(t, code, shortcode.CodeLength)

	req, _ := http.NewRequest(http.MethodGet, "/"+code, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code, "访问短码时应返回 301")
	assert.Equal(t, originalURL, w.Header().Get("Location"))
}

// TestShorten_Idempotent 重复提交同一 URL 应返回相同短链接
func TestShorten_Idempotent(t *testing.T) {
	router := setupTest(t)

	body := `{"url":"https://example.com/dup"}`
	var first, second ShortenResponse

	w := postShorten(t, router, body)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = postShorten(t, router, body)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	assert.Equal(t, first.ShortURL, second.ShortURL)
}

// TestShorten_BadRequest 非法请求体和非法 URL 都应返回 400
func TestShorten_BadRequest(t *testing.T) {
	router := setupTest(t)

	cases := []string{
		`{}`,
		`{"url":""}`,
		`{"url":"example.com/no-scheme"}`,
		`{"url":"ftp://example.com/file"}`,
		`not json`,
	}
	for _, body := range cases {
		w := postShorten(t, router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "请求体: %s", body)
		assert.Contains(t, w.Body.String(), "error")
	}
}

// TestRedirect_NotFound 未知或格式非法的短码应返回 404
func TestRedirect_NotFound(t *testing.T) {
	router := setupTest(t)

	for _, path := range []string{"/zzzzzz", "/abc", "/waytoolongcode"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "路径: %s", path)
	}
}

func TestHealthCheck(t *testing.T) {
	router := setupTest(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

// TestListAndStats 管理接口应返回列表和统计
func TestListAndStats(t *testing.T) {
	router := setupTest(t)

	postShorten(t, router, `{"url":"https://example.com/1"}`)
	postShorten(t, router, `{"url":"https://example.com/2"}`)

	req, _ := http.NewRequest(http.MethodGet, "/api/urls", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var mappings []model.URLMapping
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mappings))
	assert.Len(t, mappings, 2)

	req, _ = http.NewRequest(http.MethodGet, "/api/stats", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats.TotalURLs)
}
