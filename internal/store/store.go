package store

import (
	"context"
	"errors"

	"quicklink/internal/model"
)

var (
	// ErrNotFound 表示给定短码或原始 URL 不存在映射
	ErrNotFound = errors.New("url mapping not found")
	// ErrCodeTaken 表示插入时短码已被占用（唯一约束冲突）
	ErrCodeTaken = errors.New("short code already taken")
)

// Stats 全局统计数据
type Stats struct {
	TotalURLs   int64 `json:"total_urls"`
	TotalClicks int64 `json:"total_clicks"`
}

// Store 定义短链接的存储接口
// 唯一约束由存储层保证：并发插入相同短码时，后写入者收到 ErrCodeTaken
type Store interface {
	// Create 持久化一条新映射，短码冲突时返回 ErrCodeTaken
	Create(ctx context.Context, mapping *model.URLMapping) error
	// GetByCode 按短码查询，不存在时返回 ErrNotFound
	GetByCode(ctx context.Context, code string) (*model.URLMapping, error)
	// GetByOriginalURL 按原始 URL 查询已有映射，用于幂等复用
	GetByOriginalURL(ctx context.Context, originalURL string) (*model.URLMapping, error)
	// IncrementClicks 原子地将点击数加一
	IncrementClicks(ctx context.Context, code string) error
	// List 返回全部映射，按创建时间倒序
	List(ctx context.Context) ([]model.URLMapping, error)
	// Stats 返回链接总数与点击总数
	Stats(ctx context.Context) (*Stats, error)
	// Close 释放底层连接
	Close() error
}
