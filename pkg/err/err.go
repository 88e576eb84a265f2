package errprocess

import (
	"errors"
	"fmt"

	"video_transcode_service/pkg/logger"
)

// 錯誤分類，worker 依 errors.Is 判斷訊息要 ack 還是 requeue
var (
	// ErrInvalidArgument 呼叫端輸入錯誤（400），不重試
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTranscodeFailure ffmpeg 非零退出，整個 job 失敗，靠重新投遞重試
	ErrTranscodeFailure = errors.New("transcode failure")
	// ErrTransportFailure 網路 / 儲存 I/O 失敗，整個 job 失敗，靠重新投遞重試
	ErrTransportFailure = errors.New("transport failure")
	// ErrMalformedEvent 佇列訊息無法解析，直接丟棄（重試也不會變好）
	ErrMalformedEvent = errors.New("malformed event")
	// ErrNotifyFailure 回呼註冊播放連結失敗，重試數次後視為 job 失敗
	ErrNotifyFailure = errors.New("notify failure")
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// SetKind 記錄錯誤並附帶分類，之後可用 errors.Is(err, kind) 判斷
func SetKind(kind error, errMsg string) error {
	logger.Log.Error(errMsg)
	return fmt.Errorf("%w: %s", kind, errMsg)
}
