package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video_transcode_service/internal/transcode/domain"
	"video_transcode_service/internal/transcode/repository"
	"video_transcode_service/pkg/database"
	errprocess "video_transcode_service/pkg/err"
	"video_transcode_service/pkg/logger"
)

// PipelineSettings 管線設定，全部來自設定檔
type PipelineSettings struct {
	CDNBaseURL     string
	NotifyEndpoint string
	NotifyRetry    int
	ScratchDir     string
	Ladder         []domain.Rendition
}

// Pipeline 驅動單一 job 的完整流程：
// 下載原始檔 → 逐解析度轉碼 → 組 master playlist → 上傳輸出 → 回呼註冊連結。
// 每次狀態轉移寫入 Redis 並發布 Kafka 事件，暫存目錄成功失敗都會清除。
type Pipeline struct {
	uploadStore database.MinIOClientRepo // 原始上傳桶
	hlsStore    database.MinIOClientRepo // HLS 輸出桶
	engine      TranscodeEngine
	statusRepo  repository.StatusRepo
	events      database.EventRepo
	httpClient  *http.Client
	settings    PipelineSettings
}

// NewPipeline 建構 Pipeline 實例
func NewPipeline(uploadStore, hlsStore database.MinIOClientRepo,
	engine TranscodeEngine,
	statusRepo repository.StatusRepo,
	events database.EventRepo,
	settings PipelineSettings,
) *Pipeline {
	if settings.Ladder == nil {
		settings.Ladder = domain.DefaultLadder
	}
	if settings.NotifyRetry <= 0 {
		settings.NotifyRetry = 3
	}
	return &Pipeline{
		uploadStore: uploadStore,
		hlsStore:    hlsStore,
		engine:      engine,
		statusRepo:  statusRepo,
		events:      events,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		settings:    settings,
	}
}

// Process 執行一個 job 直到完成或失敗。回傳 nil 表示訊息可以確認，
// 回傳錯誤表示訊息要放回佇列等待重新投遞。
func (p *Pipeline) Process(ctx context.Context, videoID string) error {
	p.setStatus(ctx, videoID, domain.StatusReceived, "")

	scratchDir := filepath.Join(p.settings.ScratchDir, videoID)
	// 暫存目錄無論哪一步失敗都要清掉
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 清理暫存目錄失敗: %v", videoID, err))
		}
	}()

	if err := p.run(ctx, videoID, scratchDir); err != nil {
		p.setStatus(ctx, videoID, domain.StatusFailed, err.Error())
		return err
	}

	p.setStatus(ctx, videoID, domain.StatusDone, "")
	logger.Log.Info(fmt.Sprintf("videoID[%s] 轉碼管線完成", videoID))
	return nil
}

func (p *Pipeline) run(ctx context.Context, videoID, scratchDir string) error {
	// 1. 下載原始影片到暫存目錄
	p.setStatus(ctx, videoID, domain.StatusDownloading, "")
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return errprocess.SetKind(errprocess.ErrTransportFailure,
			fmt.Sprintf("videoID[%s] 建立暫存目錄失敗: %v", videoID, err))
	}
	inputPath := filepath.Join(scratchDir, "input.mp4")
	if err := p.uploadStore.DownloadFile(ctx, videoID, inputPath); err != nil {
		return errprocess.SetKind(errprocess.ErrTransportFailure,
			fmt.Sprintf("videoID[%s] 下載原始影片失敗: %v", videoID, err))
	}

	// 2. 依 ladder 宣告順序逐一轉碼，第一個失敗即中止
	p.setStatus(ctx, videoID, domain.StatusTranscoding, "")
	outputDir := filepath.Join(scratchDir, "output")
	for _, r := range p.settings.Ladder {
		if err := p.engine.TranscodeRendition(ctx, inputPath, outputDir, r); err != nil {
			return err
		}
	}

	// 3. 全部解析度成功後才產生 master playlist
	p.setStatus(ctx, videoID, domain.StatusAssembling, "")
	if _, err := AssembleMaster(outputDir, p.settings.Ladder); err != nil {
		return err
	}

	// 4. 上傳整個輸出目錄，任一檔失敗整個 job 視為失敗，
	//    避免註冊出缺分段的 manifest
	p.setStatus(ctx, videoID, domain.StatusUploading, "")
	if err := p.uploadOutputs(ctx, videoID, outputDir); err != nil {
		return err
	}

	// 5. 組播放連結並回呼註冊
	p.setStatus(ctx, videoID, domain.StatusNotifying, "")
	playbackURL := fmt.Sprintf("%s/%s/%s",
		strings.TrimSuffix(p.settings.CDNBaseURL, "/"), videoID, domain.MasterPlaylist)
	if err := p.notify(ctx, videoID, playbackURL); err != nil {
		return err
	}

	return nil
}

// uploadOutputs 走訪輸出目錄，所有檔案以 videoID 為前綴、保留相對路徑上傳
func (p *Pipeline) uploadOutputs(ctx context.Context, videoID, outputDir string) error {
	var uploaded int
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		objectName := videoID + "/" + filepath.ToSlash(rel)

		if err := p.hlsStore.UploadFile(ctx, objectName, path, getContentType(objectName)); err != nil {
			return fmt.Errorf("objectName[%s] 上傳失敗: %w", objectName, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return errprocess.SetKind(errprocess.ErrTransportFailure,
			fmt.Sprintf("videoID[%s] 上傳轉碼結果失敗: %v", videoID, err))
	}

	logger.Log.Info(fmt.Sprintf("videoID[%s] 上傳轉碼結果完成，共 %d 個檔案", videoID, uploaded))
	return nil
}

// notify 回呼 upload_service 註冊播放連結，失敗時線性退避重試，
// 重試用盡後整個 job 失敗、訊息重新投遞（at-least-once 通知）
func (p *Pipeline) notify(ctx context.Context, videoID, playbackURL string) error {
	payload, err := json.Marshal(map[string]string{
		"videoId":   videoID,
		"videoLink": playbackURL,
	})
	if err != nil {
		return errprocess.SetKind(errprocess.ErrNotifyFailure,
			fmt.Sprintf("videoID[%s] 通知內容序列化失敗: %v", videoID, err))
	}

	var lastErr error
	for attempt := 1; attempt <= p.settings.NotifyRetry; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.settings.NotifyEndpoint, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
				logger.Log.Info(fmt.Sprintf("videoID[%s] 播放連結註冊成功: %s", videoID, playbackURL))
				return nil
			}
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		lastErr = err
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 連結註冊失敗 (嘗試 %d/%d): %v",
			videoID, attempt, p.settings.NotifyRetry, err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	return errprocess.SetKind(errprocess.ErrNotifyFailure,
		fmt.Sprintf("videoID[%s] 連結註冊重試 %d 次後仍失敗: %v", videoID, p.settings.NotifyRetry, lastErr))
}

// setStatus 更新 Redis 狀態並發布 Kafka 事件，兩者失敗都不影響管線本身
func (p *Pipeline) setStatus(ctx context.Context, videoID string, status domain.JobStatus, errMsg string) {
	if err := p.statusRepo.SetStatus(ctx, videoID, status, errMsg); err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 更新狀態 %s 失敗: %v", videoID, status, err))
	}

	if p.events == nil {
		return
	}
	event := domain.StatusEvent{
		VideoID: videoID,
		Status:  status,
		Error:   errMsg,
		At:      time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 狀態事件序列化失敗: %v", videoID, err))
		return
	}
	if err := p.events.Publish(ctx, []byte(videoID), data); err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 發布狀態事件失敗: %v", videoID, err))
	}
}

func getContentType(filename string) string {
	ext := filepath.Ext(filename)
	switch ext {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/MP2T"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
