package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/pkg/database"

	"github.com/stretchr/testify/mock"
)

// MockMinIOClient 是 MinIOClientRepo 的 Mock
type MockMinIOClient struct {
	mock.Mock
}

// UploadFile 模擬 MinIO 上傳行為
func (m *MockMinIOClient) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	args := m.Called(ctx, objectName, filePath, contentType)
	return args.Error(0)
}

// DownloadFile 模擬 MinIO 下載行為
func (m *MockMinIOClient) DownloadFile(ctx context.Context, objectName, destPath string) error {
	args := m.Called(ctx, objectName, destPath)
	return args.Error(0)
}

// PresignGetURL 模擬 MinIO presign get url
func (m *MockMinIOClient) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.Get(0).(string), args.Error(1)
}

// PresignPutURL 模擬 MinIO presign put url
func (m *MockMinIOClient) PresignPutURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.Get(0).(string), args.Error(1)
}

// MockStatusRepo 是 StatusRepo 的 Mock
type MockStatusRepo struct {
	mock.Mock

	// 記錄 SetStatus 的呼叫順序，驗證狀態機轉移用
	Statuses []domain.JobStatus
}

func (m *MockStatusRepo) SetStatus(ctx context.Context, videoID string, status domain.JobStatus, errMsg string) error {
	m.Statuses = append(m.Statuses, status)
	args := m.Called(ctx, videoID, status, errMsg)
	return args.Error(0)
}

func (m *MockStatusRepo) GetStatus(ctx context.Context, videoID string) (domain.JobState, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(domain.JobState), args.Error(1)
}

func (m *MockStatusRepo) IncrAttempts(ctx context.Context, videoID string) (int64, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatusRepo) ClearAttempts(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

// MockJobQueueRepo 是 JobQueueRepo 的 Mock
type MockJobQueueRepo struct {
	mock.Mock
}

func (m *MockJobQueueRepo) Receive(queueName string, max int) ([]database.QueueMessage, error) {
	args := m.Called(queueName, max)
	if args.Get(0) != nil {
		return args.Get(0).([]database.QueueMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJobQueueRepo) Delete(receiptHandle uint64) error {
	args := m.Called(receiptHandle)
	return args.Error(0)
}

func (m *MockJobQueueRepo) Release(receiptHandle uint64) error {
	args := m.Called(receiptHandle)
	return args.Error(0)
}

func (m *MockJobQueueRepo) Publish(queueName string, body []byte) error {
	args := m.Called(queueName, body)
	return args.Error(0)
}

// MockJobProcessor 是 JobProcessor 的 Mock
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) Process(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

// MockEventRepo 是 EventRepo 的 Mock
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Publish(ctx context.Context, key, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockEventRepo) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeEngine 不跑 ffmpeg，直接在輸出目錄寫出假的分段與播放清單。
// err 不為 nil 時模擬轉碼失敗。
type fakeEngine struct {
	err   error
	calls []string
}

func (f *fakeEngine) TranscodeRendition(ctx context.Context, inputPath, outputDir string, r domain.Rendition) error {
	f.calls = append(f.calls, r.Name)
	if f.err != nil {
		return f.err
	}

	renditionDir := filepath.Join(outputDir, r.Name)
	if err := os.MkdirAll(renditionDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(renditionDir, domain.RenditionPlaylist), []byte("#EXTM3U\n"), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(renditionDir, "segment_000.ts"), []byte("ts-data"), 0644)
}
