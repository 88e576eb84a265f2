package repository

import (
	"video_transcode_service/internal/upload/domain"

	"gorm.io/gorm"
)

// LinkRepo definition 播放連結記錄存取
type LinkRepo interface {
	AutoMigrate() error
	Create(link *domain.Link) error
	FindByVideoID(videoID string) (*domain.Link, error)
}

type linkRepo struct {
	db *gorm.DB
}

// NewLinkRepo create LinkRepo
func NewLinkRepo(db *gorm.DB) LinkRepo {
	return &linkRepo{db: db}
}

// AutoMigrate 依模型建立 / 更新 links 資料表
func (r *linkRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Link{})
}

// Create 插入一筆連結記錄
func (r *linkRepo) Create(link *domain.Link) error {
	return r.db.Create(link).Error
}

// FindByVideoID 取同一 videoId 最新的一筆連結
func (r *linkRepo) FindByVideoID(videoID string) (*domain.Link, error) {
	var link domain.Link
	if err := r.db.Where("video_id = ?", videoID).Order("created_at DESC").First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}
