package router

import (
	"video_transcode_service/internal/upload/api/handlers"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 註冊上傳相關的路由
func RegisterRoutes(app *fiber.App, uploadHandler *handlers.UploadHandler, healthHandler *handlers.HealthHandler) {
	app.Get("/upload/getPresignedUrl", uploadHandler.GetPresignedURL)
	app.Post("/upload/getDownloadUrl", uploadHandler.GetDownloadURL)
	app.Post("/upload/upload-video-link", uploadHandler.PostVideoLink)
	app.Get("/upload/video-link/:videoId", uploadHandler.GetVideoLink)
	app.Get("/upload/status/:videoId", uploadHandler.GetStatus)
	app.Get("/health", healthHandler.Health)
}
