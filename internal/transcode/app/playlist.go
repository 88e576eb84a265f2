package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video_transcode_service/internal/transcode/domain"
	errprocess "video_transcode_service/pkg/err"
)

// AssembleMaster 產生 master playlist，內容只由 ladder 決定：
// 每個 rendition 依宣告順序輸出一組 STREAM-INF 與相對路徑，無時間戳無隨機值。
// 回傳寫出的檔案路徑。
func AssembleMaster(outputDir string, ladder []domain.Rendition) (string, error) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, r := range ladder {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", r.Bandwidth, r.Resolution())
		fmt.Fprintf(&b, "%s/%s\n", r.Name, domain.RenditionPlaylist)
	}

	path := filepath.Join(outputDir, domain.MasterPlaylist)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", errprocess.SetKind(errprocess.ErrTransportFailure,
			fmt.Sprintf("寫入 master playlist 失敗: %v", err))
	}
	return path, nil
}
