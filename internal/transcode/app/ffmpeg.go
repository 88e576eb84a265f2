package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"video_transcode_service/internal/transcode/domain"
	errprocess "video_transcode_service/pkg/err"
	"video_transcode_service/pkg/logger"
)

// TranscodeEngine definition 單一解析度的轉碼，pipeline 依賴這層方便 mock
type TranscodeEngine interface {
	TranscodeRendition(ctx context.Context, inputPath, outputDir string, r domain.Rendition) error
}

type ffmpegEngine struct{}

// NewFFmpegEngine create 以外部 ffmpeg 程序實作的 TranscodeEngine
func NewFFmpegEngine() TranscodeEngine {
	return &ffmpegEngine{}
}

// buildFFmpegArgs 依 rendition 組出固定的 ffmpeg 參數：
// scale=-2:<h> 維持比例並強制偶數高度、6 秒分段、VOD 播放清單
func buildFFmpegArgs(inputPath, renditionDir string, r domain.Rendition) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", r.Height),
		"-c:v", "h264",
		"-profile:v", "main",
		"-crf", "23",
		"-c:a", "aac",
		"-ar", "48000",
		"-b:a", "128k",
		"-hls_time", strconv.Itoa(domain.SegmentDuration),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(renditionDir, domain.SegmentFilePattern),
		filepath.Join(renditionDir, domain.RenditionPlaylist),
	}
}

// TranscodeRendition 呼叫 ffmpeg 轉出一個解析度的分段與播放清單。
// stderr 逐行收進 debug log 並累積起來，非零退出時整段附在錯誤訊息裡。
func (e *ffmpegEngine) TranscodeRendition(ctx context.Context, inputPath, outputDir string, r domain.Rendition) error {
	renditionDir := filepath.Join(outputDir, r.Name)
	if err := os.MkdirAll(renditionDir, 0755); err != nil {
		return errprocess.SetKind(errprocess.ErrTranscodeFailure,
			fmt.Sprintf("rendition[%s] 建立輸出目錄失敗: %v", r.Name, err))
	}

	args := buildFFmpegArgs(inputPath, renditionDir, r)
	logger.Log.Info(fmt.Sprintf("rendition[%s] 執行 FFmpeg: ffmpeg %s", r.Name, strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errprocess.SetKind(errprocess.ErrTranscodeFailure,
			fmt.Sprintf("rendition[%s] 取得 FFmpeg stderr 失敗: %v", r.Name, err))
	}

	if err := cmd.Start(); err != nil {
		return errprocess.SetKind(errprocess.ErrTranscodeFailure,
			fmt.Sprintf("rendition[%s] 啟動 FFmpeg 失敗: %v", r.Name, err))
	}

	// ffmpeg 的進度與診斷都走 stderr，且進度列只以 \r 分隔。
	// 必須持續排空 pipe 直到 EOF，否則 ffmpeg 會卡在寫 stderr 上，Wait 永遠不返回。
	var diag strings.Builder
	var line strings.Builder
	var readErr error
	reader := bufio.NewReader(stderr)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
		if b == '\n' || b == '\r' {
			if line.Len() > 0 {
				diag.WriteString(line.String())
				diag.WriteString("\n")
				logger.Log.Debug(fmt.Sprintf("FFmpeg progress: %s", line.String()))
				line.Reset()
			}
			continue
		}
		line.WriteByte(b)
	}
	if line.Len() > 0 {
		diag.WriteString(line.String())
		diag.WriteString("\n")
		logger.Log.Debug(fmt.Sprintf("FFmpeg progress: %s", line.String()))
	}

	waitErr := cmd.Wait()
	if readErr != nil {
		return errprocess.SetKind(errprocess.ErrTranscodeFailure,
			fmt.Sprintf("rendition[%s] 讀取 FFmpeg stderr 失敗: %v", r.Name, readErr))
	}
	if waitErr != nil {
		return errprocess.SetKind(errprocess.ErrTranscodeFailure,
			fmt.Sprintf("rendition[%s] FFmpeg 轉碼失敗: %v, output: %s", r.Name, waitErr, diag.String()))
	}

	logger.Log.Info(fmt.Sprintf("rendition[%s] FFmpeg 轉碼完成", r.Name))
	return nil
}
