package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/ingest"
	"github.com/smartscan-app/smartscan/internal/pkg/middleware"
)

// UploadController accepts receipt file batches from the web client.
type UploadController struct {
	pipeline *ingest.Pipeline
}

func NewUploadController(pipeline *ingest.Pipeline) *UploadController {
	return &UploadController{pipeline: pipeline}
}

// Upload ingests the multipart "files" field. Results are reported per
// file; the batch succeeds even when individual files fail.
func (uc *UploadController) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "マルチパートフォームを読み取れません")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return badRequest(c, "ファイルがありません")
	}

	files := make([]ingest.BatchFile, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	defer func() {
		for _, close := range closers {
			close()
		}
	}()
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return badRequest(c, "ファイルを開けません: "+header.Filename)
		}
		closers = append(closers, f.Close)
		files = append(files, ingest.BatchFile{Filename: header.Filename, Reader: f})
	}

	result, err := uc.pipeline.IngestBatch(c.UserContext(), middleware.UserID(c), models.SOURCE_WEB, files)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
