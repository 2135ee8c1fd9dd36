package model

import (
	"time"
)

// URLMapping 短链接映射模型
// ShortCode 和 OriginalURL 创建后不可变，ClickCount 只增不减
type URLMapping struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ShortCode   string    `gorm:"size:8;uniqueIndex;not null" json:"short_code"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	ClickCount  int64     `gorm:"default:0" json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (URLMapping) TableName() string {
	return "urls"
}
