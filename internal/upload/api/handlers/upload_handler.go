package handlers

import (
	"errors"
	"net/http"

	"video_transcode_service/internal/upload/app"
	"video_transcode_service/internal/upload/domain"
	errprocess "video_transcode_service/pkg/err"

	"github.com/gofiber/fiber/v2"
)

// UploadHandler 定義上傳入口處理器
type UploadHandler struct {
	Usecase app.UploadUseCase
}

// GetPresignedURL 鑄造 videoId 並返回限時上傳 URL
// @Summary Mint an upload intent
// @Description Returns a presigned PUT URL; key doubles as videoId
// @Tags Upload
// @Success 200 {object} domain.UploadIntentRes
// @Router /upload/getPresignedUrl [get]
func (h *UploadHandler) GetPresignedURL(c *fiber.Ctx) error {
	res, err := h.Usecase.RequestUpload(c.Context())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "生成上傳 URL 失敗"})
	}
	return c.JSON(res)
}

// GetDownloadURL 對指定 key 返回限時下載 URL
// @Summary Presigned download URL for an uploaded object
// @Tags Upload
// @Param body body domain.DownloadURLReq true "object key"
// @Success 200 {object} fiber.Map
// @Failure 400 {object} fiber.Map
// @Router /upload/getDownloadUrl [post]
func (h *UploadHandler) GetDownloadURL(c *fiber.Ctx) error {
	var req domain.DownloadURLReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "請求內容解析失敗"})
	}

	url, err := h.Usecase.RequestDownload(c.Context(), req.Key)
	if err != nil {
		if errors.Is(err, errprocess.ErrInvalidArgument) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "key 不可為空"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "生成下載 URL 失敗"})
	}

	return c.JSON(fiber.Map{"accessUrl": url})
}

// PostVideoLink 轉碼 worker 完成後回呼，註冊播放連結
// @Summary Register the playable manifest URL for a videoId
// @Tags Upload
// @Param body body domain.RegisterLinkReq true "videoId and manifest URL"
// @Success 201 {object} fiber.Map
// @Failure 400 {object} fiber.Map
// @Router /upload/upload-video-link [post]
func (h *UploadHandler) PostVideoLink(c *fiber.Ctx) error {
	var req domain.RegisterLinkReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "請求內容解析失敗"})
	}

	link, err := h.Usecase.RegisterLink(c.Context(), req.VideoID, req.VideoLink)
	if err != nil {
		if errors.Is(err, errprocess.ErrInvalidArgument) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "videoId 與 videoLink 皆不可為空"})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "建立連結記錄失敗"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"linkData": link})
}

// GetVideoLink 查詢 videoId 已註冊的播放連結
// @Summary Look up the registered manifest URL for a videoId
// @Tags Upload
// @Param videoId path string true "video id"
// @Success 200 {object} fiber.Map
// @Failure 404 {object} fiber.Map
// @Router /upload/video-link/{videoId} [get]
func (h *UploadHandler) GetVideoLink(c *fiber.Ctx) error {
	videoID := c.Params("videoId")

	link, err := h.Usecase.GetLink(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, errprocess.ErrInvalidArgument) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "videoId 不可為空"})
		}
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "查無此 videoId 的播放連結"})
	}

	return c.JSON(fiber.Map{"linkData": link})
}

// GetStatus 查詢 job 當前管線狀態（呼叫端輪詢用）
// @Summary Poll pipeline status for a videoId
// @Tags Upload
// @Param videoId path string true "video id"
// @Success 200 {object} fiber.Map
// @Router /upload/status/{videoId} [get]
func (h *UploadHandler) GetStatus(c *fiber.Ctx) error {
	videoID := c.Params("videoId")

	state, err := h.Usecase.GetStatus(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, errprocess.ErrInvalidArgument) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "videoId 不可為空"})
		}
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "查無此 videoId 的狀態"})
	}

	return c.JSON(state)
}
