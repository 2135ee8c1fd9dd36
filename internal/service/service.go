package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quicklink/internal/model"
	"quicklink/internal/shortcode"
	"quicklink/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// maxAttempts 是短码碰撞时的最大重试次数
	maxAttempts = 10
	// cacheKeyPrefix 是重定向缓存的键前缀
	cacheKeyPrefix = "shortlink:"
	// cacheTTL 是重定向缓存的过期时间
	cacheTTL = 24 * time.Hour
)

var (
	// ErrInvalidURL 表示输入不是合法的 http/https 绝对 URL
	ErrInvalidURL = errors.New("invalid url")
	// ErrAllocationExhausted 表示重试次数耗尽仍未找到空闲短码
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
	// ErrNotFound 表示短码不存在或格式非法
	ErrNotFound = errors.New("short code not found")
)

// CodeGenerator 定义短码生成接口，便于测试时注入确定性实现
type CodeGenerator interface {
	Generate() (string, error)
}

// ShortenerService 实现短码分配与重定向解析的核心逻辑
type ShortenerService struct {
	store     store.Store
	generator CodeGenerator
	redis     *redis.Client
	baseURL   string
	logger    *zap.SugaredLogger
}

// NewShortenerService 创建服务实例，redisClient 可以为 nil（不启用缓存）
func NewShortenerService(s store.Store, generator CodeGenerator, redisClient *redis.Client, baseURL string, logger *zap.SugaredLogger) *ShortenerService {
	return &ShortenerService{
		store:     s,
		generator: generator,
		redis:     redisClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger.Named("shortener"),
	}
}

// Shorten 为原始 URL 分配短码
// 同一 URL 重复提交时直接复用已有短码，不新建记录也不影响点击数。
// 以数据库唯一约束作为碰撞的权威信号：插入冲突即换新短码重试，
// 最多 maxAttempts 次，耗尽后返回 ErrAllocationExhausted。
func (s *ShortenerService) Shorten(ctx context.Context, rawURL string) (*model.URLMapping, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	// 幂等快速路径：该 URL 已有映射则直接复用
	existing, err := s.store.GetByOriginalURL(ctx, rawURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("查询已有映射失败: %w", err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("生成短码失败: %w", err)
		}

		mapping := &model.URLMapping{ShortCode: code, OriginalURL: rawURL}
		err = s.store.Create(ctx, mapping)
		if err == nil {
			s.cacheSet(code, rawURL)
			return mapping, nil
		}
		if errors.Is(err, store.ErrCodeTaken) {
			// 短码碰撞，属于预期情况，换一个再试
			s.logger.Warnw("短码碰撞，重试", "code", code, "attempt", attempt+1)
			continue
		}
		return nil, fmt.Errorf("持久化映射失败: %w", err)
	}

	s.logger.Errorw("短码分配失败，重试次数耗尽", "max_attempts", maxAttempts)
	return nil, ErrAllocationExhausted
}

// Resolve 将短码解析为原始 URL，并异步累加点击数
// 长度不符的短码直接按不存在处理，不查询存储。
func (s *ShortenerService) Resolve(ctx context.Context, code string) (string, error) {
	if len(code) != shortcode.CodeLength {
		return "", ErrNotFound
	}

	if cached, ok := s.cacheGet(code); ok {
		go s.incrementClicks(code)
		return cached, nil
	}

	mapping, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("查询短码失败: %w", err)
	}

	go s.incrementClicks(code)
	s.cacheSet(code, mapping.OriginalURL)
	return mapping.OriginalURL, nil
}

// ShortURL 拼接对外可见的完整短链接
func (s *ShortenerService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// ListMappings 返回全部映射，按创建时间倒序，供管理接口使用
func (s *ShortenerService) ListMappings(ctx context.Context) ([]model.URLMapping, error) {
	return s.store.List(ctx)
}

// Stats 返回全局统计
func (s *ShortenerService) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

// incrementClicks 在后台累加点击数，失败只记日志，不影响重定向响应
func (s *ShortenerService) incrementClicks(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.IncrementClicks(ctx, code); err != nil {
		s.logger.Errorw("累加点击数失败", "code", code, "error", err)
	}
}

func (s *ShortenerService) cacheGet(code string) (string, bool) {
	if s.redis == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	cached, err := s.redis.Get(ctx, cacheKeyPrefix+code).Result()
	if err != nil {
		return "", false
	}
	return cached, true
}

func (s *ShortenerService) cacheSet(code, originalURL string) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	s.redis.Set(ctx, cacheKeyPrefix+code, originalURL, cacheTTL)
}

// validateURL 校验输入必须是带 http/https 协议的绝对 URL
func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrInvalidURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
