package repository

import (
	"context"
	"fmt"
	"time"

	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/pkg/database"
)

// 狀態與嘗試次數的保留時間，看完結果前不會過期
const stateTTL = 72 * time.Hour

// StatusRepo definition job 狀態與嘗試次數存取
type StatusRepo interface {
	SetStatus(ctx context.Context, videoID string, status domain.JobStatus, errMsg string) error
	GetStatus(ctx context.Context, videoID string) (domain.JobState, error)
	IncrAttempts(ctx context.Context, videoID string) (int64, error)
	ClearAttempts(ctx context.Context, videoID string) error
}

type statusRepo struct {
	states database.RedisRepository[domain.JobState]
	counts database.RedisRepository[int64]
}

// NewStatusRepo create StatusRepo
func NewStatusRepo(states database.RedisRepository[domain.JobState], counts database.RedisRepository[int64]) StatusRepo {
	return &statusRepo{states: states, counts: counts}
}

func statusKey(videoID string) string {
	return fmt.Sprintf("job:%s:status", videoID)
}

func attemptsKey(videoID string) string {
	return fmt.Sprintf("job:%s:attempts", videoID)
}

// SetStatus 寫入當前狀態，每次狀態轉移都會呼叫
func (r *statusRepo) SetStatus(ctx context.Context, videoID string, status domain.JobStatus, errMsg string) error {
	state := domain.JobState{
		VideoID:   videoID,
		Status:    status,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}
	return r.states.Set(ctx, statusKey(videoID), state, stateTTL)
}

// GetStatus 讀取當前狀態
func (r *statusRepo) GetStatus(ctx context.Context, videoID string) (domain.JobState, error) {
	return r.states.Get(ctx, statusKey(videoID))
}

// IncrAttempts 嘗試次數加一並回傳目前值
func (r *statusRepo) IncrAttempts(ctx context.Context, videoID string) (int64, error) {
	count, err := r.counts.Incr(ctx, attemptsKey(videoID))
	if err != nil {
		return 0, err
	}
	if err := r.counts.ExtendTTL(ctx, attemptsKey(videoID), stateTTL); err != nil {
		return count, err
	}
	return count, nil
}

// ClearAttempts job 完成後清掉計數
func (r *statusRepo) ClearAttempts(ctx context.Context, videoID string) error {
	return r.counts.Del(ctx, attemptsKey(videoID))
}
