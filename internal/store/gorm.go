package store

import (
	"context"
	"errors"

	"quicklink/internal/model"

	"gorm.io/gorm"
)

// GormStore 基于 GORM 的存储实现，同时支持 MySQL 和 SQLite
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建存储实例
// 要求 db 以 TranslateError 模式打开，唯一约束冲突才能被识别为 gorm.ErrDuplicatedKey
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, mapping *model.URLMapping) error {
	if err := s.db.WithContext(ctx).Create(mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return err
	}
	return nil
}

func (s *GormStore) GetByCode(ctx context.Context, code string) (*model.URLMapping, error) {
	var mapping model.URLMapping
	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

func (s *GormStore) GetByOriginalURL(ctx context.Context, originalURL string) (*model.URLMapping, error) {
	var mapping model.URLMapping
	err := s.db.WithContext(ctx).Where("original_url = ?", originalURL).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &mapping, nil
}

func (s *GormStore) IncrementClicks(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Model(&model.URLMapping{}).
		Where("short_code = ?", code).
		Update("click_count", gorm.Expr("click_count + 1")).Error
}

func (s *GormStore) List(ctx context.Context) ([]model.URLMapping, error) {
	var mappings []model.URLMapping
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

func (s *GormStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&model.URLMapping{}).Count(&stats.TotalURLs).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&model.URLMapping{}).
		Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
