package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"video_transcode_service/pkg/logger"
	testtool "video_transcode_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// **測試用的容器**
var minioContainer testcontainers.Container
var minioClient MinIOClientRepo

var (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
	minioBucket   = "upload-bucket"
)

// **TestMain - 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	var err error
	logger.SetNewNop()

	// **啟動 MinIO**
	minioContainer, minioHost, minioPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image: "minio/minio:latest",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MinIO: %v", err)
	}
	fmt.Printf("✅ MinIO running at %s:%s\n", minioHost, minioPort)

	minioClient, err = NewMinioClient(
		fmt.Sprintf("%s:%s", minioHost, minioPort),
		minioUser, minioPassword, minioBucket, false)
	if err != nil {
		log.Fatalf("❌ Failed to create MinIO client: %v", err)
	}

	code := m.Run()

	if err := minioContainer.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate MinIO container: %v", err)
	}
	os.Exit(code)
}

// 測試 MinIO 上傳下載循環
func TestMinIOUploadDownload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	srcPath := filepath.Join(dir, "input.mp4")
	content := []byte("dummy video content")
	assert.NoError(t, os.WriteFile(srcPath, content, 0644))

	t.Run("上傳後可下載且內容一致", func(t *testing.T) {
		err := minioClient.UploadFile(ctx, "vid-1/input.mp4", srcPath, "video/mp4")
		assert.NoError(t, err)

		destPath := filepath.Join(dir, "downloaded.mp4")
		err = minioClient.DownloadFile(ctx, "vid-1/input.mp4", destPath)
		assert.NoError(t, err)

		downloaded, err := os.ReadFile(destPath)
		assert.NoError(t, err)
		assert.Equal(t, content, downloaded)
	})

	t.Run("下載不存在的物件回傳錯誤", func(t *testing.T) {
		err := minioClient.DownloadFile(ctx, "no-such-object", filepath.Join(dir, "missing.mp4"))
		assert.Error(t, err)
	})
}

// 測試 presign URL 生成
func TestMinIOPresignURL(t *testing.T) {
	ctx := context.Background()

	t.Run("生成上傳與下載 presign URL", func(t *testing.T) {
		putURL, err := minioClient.PresignPutURL(ctx, "vid-presign", 15*time.Minute)
		assert.NoError(t, err)
		assert.Contains(t, putURL, "vid-presign")

		getURL, err := minioClient.PresignGetURL(ctx, "vid-presign", 15*time.Minute)
		assert.NoError(t, err)
		assert.Contains(t, getURL, "vid-presign")
	})
}
