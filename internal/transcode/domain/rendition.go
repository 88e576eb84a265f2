package domain

import "fmt"

const (
	// SegmentDuration 每段固定 6 秒
	SegmentDuration = 6
	// SegmentFilePattern ffmpeg 分段檔命名樣式，零填充流水號
	SegmentFilePattern = "segment_%03d.ts"
	// RenditionPlaylist 每個解析度目錄下的播放清單檔名
	RenditionPlaylist = "playlist.m3u8"
	// MasterPlaylist 輸出根目錄的主播放清單檔名
	MasterPlaylist = "master.m3u8"
)

// Rendition 一組 (高度, 目標碼率)，ladder 在編譯期固定，不屬於 job 狀態
type Rendition struct {
	Name      string // 目錄名，例如 "360p"
	Width     int
	Height    int
	Bandwidth int // master playlist 的 BANDWIDTH 值
}

// Resolution 回傳 "WxH" 格式字串
func (r Rendition) Resolution() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// DefaultLadder 固定解析度階梯，master playlist 依宣告順序輸出
var DefaultLadder = []Rendition{
	{Name: "360p", Width: 640, Height: 360, Bandwidth: 800000},
	{Name: "480p", Width: 854, Height: 480, Bandwidth: 1400000},
	{Name: "720p", Width: 1280, Height: 720, Bandwidth: 2800000},
}
