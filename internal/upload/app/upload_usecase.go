package app

import (
	"context"
	"fmt"
	"time"

	tdomain "video_transcode_service/internal/transcode/domain"
	trepository "video_transcode_service/internal/transcode/repository"
	"video_transcode_service/internal/upload/domain"
	"video_transcode_service/internal/upload/repository"
	"video_transcode_service/pkg/database"
	errprocess "video_transcode_service/pkg/err"
	"video_transcode_service/pkg/logger"

	"github.com/google/uuid"
)

// UploadUseCase 這裡封裝了對外提供的應用服務
type UploadUseCase interface {
	RequestUpload(ctx context.Context) (*domain.UploadIntentRes, error)
	RequestDownload(ctx context.Context, key string) (string, error)
	RegisterLink(ctx context.Context, videoID, videoLink string) (*domain.Link, error)
	GetLink(ctx context.Context, videoID string) (*domain.Link, error)
	GetStatus(ctx context.Context, videoID string) (*tdomain.JobState, error)
}

type uploadUseCase struct {
	UploadStore   database.MinIOClientRepo
	LinkRepo      repository.LinkRepo
	StatusRepo    trepository.StatusRepo
	PresignExpiry time.Duration
}

// NewUploadUseCase 建立一個新的 UploadUseCase
func NewUploadUseCase(uploadStore database.MinIOClientRepo,
	linkRepo repository.LinkRepo,
	statusRepo trepository.StatusRepo,
	presignExpiry time.Duration,
) UploadUseCase {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &uploadUseCase{
		UploadStore:   uploadStore,
		LinkRepo:      linkRepo,
		StatusRepo:    statusRepo,
		PresignExpiry: presignExpiry,
	}
}

// RequestUpload 鑄造新的 videoId 並產生限時上傳 URL。
// 這裡不落任何 job 記錄，job 的存在由之後的 storage event 隱含。
func (u *uploadUseCase) RequestUpload(ctx context.Context) (*domain.UploadIntentRes, error) {
	key := uuid.NewString()

	uploadURL, err := u.UploadStore.PresignPutURL(ctx, key, u.PresignExpiry)
	if err != nil {
		errMsg := fmt.Sprintf("key[%s] 生成上傳 URL 失敗 : %v", key, err)
		return nil, errprocess.SetKind(errprocess.ErrTransportFailure, errMsg)
	}

	return &domain.UploadIntentRes{
		PresignedURL: uploadURL,
		Key:          key,
		VideoID:      key, // key 即 videoId
	}, nil
}

// RequestDownload 對指定 key 產生限時下載 URL，純委派無狀態
func (u *uploadUseCase) RequestDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errprocess.SetKind(errprocess.ErrInvalidArgument, "key 不可為空")
	}

	downloadURL, err := u.UploadStore.PresignGetURL(ctx, key, u.PresignExpiry)
	if err != nil {
		errMsg := fmt.Sprintf("key[%s] 生成下載 URL 失敗 : %v", key, err)
		return "", errprocess.SetKind(errprocess.ErrTransportFailure, errMsg)
	}

	return downloadURL, nil
}

// RegisterLink 持久化 videoId 與播放連結的對應。
// 重複呼叫會建立重複記錄（worker 通知重試時可能發生），不在此去重。
func (u *uploadUseCase) RegisterLink(ctx context.Context, videoID, videoLink string) (*domain.Link, error) {
	if videoID == "" || videoLink == "" {
		return nil, errprocess.SetKind(errprocess.ErrInvalidArgument, "videoId 與 videoLink 皆不可為空")
	}

	link := domain.Link{
		VideoID:   videoID,
		VideoLink: videoLink,
	}
	if err := u.LinkRepo.Create(&link); err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 資料庫建立連結失敗 : %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}

	logger.Log.Info(fmt.Sprintf("videoID[%s] 播放連結註冊完成: %s", videoID, videoLink))
	return &link, nil
}

// GetLink 查詢 videoId 最新註冊的播放連結（通知重試造成重複時取最新一筆）
func (u *uploadUseCase) GetLink(ctx context.Context, videoID string) (*domain.Link, error) {
	if videoID == "" {
		return nil, errprocess.SetKind(errprocess.ErrInvalidArgument, "videoId 不可為空")
	}

	link, err := u.LinkRepo.FindByVideoID(videoID)
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 查無播放連結 : %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}
	return link, nil
}

// GetStatus 讀取 job 當前的管線狀態
func (u *uploadUseCase) GetStatus(ctx context.Context, videoID string) (*tdomain.JobState, error) {
	if videoID == "" {
		return nil, errprocess.SetKind(errprocess.ErrInvalidArgument, "videoId 不可為空")
	}

	state, err := u.StatusRepo.GetStatus(ctx, videoID)
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 查無狀態 : %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}
	return &state, nil
}
