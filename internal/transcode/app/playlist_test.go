package app

import (
	"os"
	"path/filepath"
	"testing"

	"video_transcode_service/internal/transcode/domain"

	"github.com/stretchr/testify/assert"
)

// 測試 AssembleMaster
func TestAssembleMaster(t *testing.T) {
	t.Run("內容完全由 ladder 決定且順序固定", func(t *testing.T) {
		dir := t.TempDir()

		path, err := AssembleMaster(dir, domain.DefaultLadder)
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, domain.MasterPlaylist), path)

		content, err := os.ReadFile(path)
		assert.NoError(t, err)

		expected := "#EXTM3U\n" +
			"#EXT-X-VERSION:3\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n" +
			"360p/playlist.m3u8\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=1400000,RESOLUTION=854x480\n" +
			"480p/playlist.m3u8\n" +
			"#EXT-X-STREAM-INF:BANDWIDTH=2800000,RESOLUTION=1280x720\n" +
			"720p/playlist.m3u8\n"
		assert.Equal(t, expected, string(content))
	})

	t.Run("相同輸入重複產生結果相同", func(t *testing.T) {
		dirA := t.TempDir()
		dirB := t.TempDir()

		pathA, err := AssembleMaster(dirA, domain.DefaultLadder)
		assert.NoError(t, err)
		pathB, err := AssembleMaster(dirB, domain.DefaultLadder)
		assert.NoError(t, err)

		contentA, _ := os.ReadFile(pathA)
		contentB, _ := os.ReadFile(pathB)
		assert.Equal(t, contentA, contentB)
	})

	t.Run("輸出目錄不存在時回傳錯誤", func(t *testing.T) {
		_, err := AssembleMaster(filepath.Join(t.TempDir(), "no-such-dir"), domain.DefaultLadder)
		assert.Error(t, err)
	})
}
