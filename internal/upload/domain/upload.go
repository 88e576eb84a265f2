package domain

import "time"

// Link 一筆 videoId 到播放連結的對應，轉碼完成後由 worker 回呼建立。
// 預設允許同一 videoId 重複註冊（重試時可能發生），查詢取最新一筆。
type Link struct {
	ID        uint   `gorm:"primaryKey"`
	VideoID   string `gorm:"index" json:"videoId"`
	VideoLink string `json:"videoLink"`
	CreatedAt time.Time
}

// UploadIntentRes 上傳意圖回應，key 即 videoId
type UploadIntentRes struct {
	PresignedURL string `json:"presignedUrl"`
	Key          string `json:"key"`
	VideoID      string `json:"videoId"`
}

// DownloadURLReq 下載連結請求
type DownloadURLReq struct {
	Key string `json:"key"`
}

// RegisterLinkReq 連結註冊請求
type RegisterLinkReq struct {
	VideoID   string `json:"videoId"`
	VideoLink string `json:"videoLink"`
}
