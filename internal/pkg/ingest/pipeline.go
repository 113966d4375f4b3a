// Package ingest runs the receipt ingestion pipeline: quota gate,
// preprocessing, blob upload, model extraction and record persistence,
// with per-file error isolation.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
	"github.com/smartscan-app/smartscan/internal/pkg/extraction"
)

// RecordStore persists extracted receipt records.
type RecordStore interface {
	Create(record *models.ReceiptRecord) error
}

// QuotaLedger gates and accounts usage per user.
type QuotaLedger interface {
	Check(userID uint) bool
	Increment(userID uint, n int) error
}

// BlobStore uploads local files and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, localPath, key string) (string, error)
}

// Preprocessor normalizes images and rasterizes PDFs.
type Preprocessor interface {
	CompressImage(path string) (string, error)
	RasterizePDF(path string) ([]string, error)
}

// BatchFile is one incoming upload.
type BatchFile struct {
	Filename string
	Reader   io.Reader
}

// FileResult reports the outcome for one file of a batch.
type FileResult struct {
	Filename     string `json:"filename"`
	Status       string `json:"status"`
	RecordsCount int    `json:"records_count,omitempty"`
	Error        string `json:"error,omitempty"`

	// Records carries the persisted rows for callers that want to echo
	// them back (the chat bot reply); not part of the wire response.
	Records []*models.ReceiptRecord `json:"-"`
}

// BatchSummary aggregates a batch outcome.
type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// BatchResult is the full response for one ingestion batch.
type BatchResult struct {
	Results []FileResult `json:"results"`
	Summary BatchSummary `json:"summary"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	records   RecordStore
	quota     QuotaLedger
	blobs     BlobStore
	prep      Preprocessor
	extractor extraction.Extractor
	ids       *IDGenerator
	uploadDir string
}

func NewPipeline(records RecordStore, quota QuotaLedger, blobs BlobStore, prep Preprocessor, extractor extraction.Extractor, uploadDir string) *Pipeline {
	return &Pipeline{
		records:   records,
		quota:     quota,
		blobs:     blobs,
		prep:      prep,
		extractor: extractor,
		ids:       NewIDGenerator(),
		uploadDir: uploadDir,
	}
}

// IngestBatch processes the files one by one. The quota is checked once
// for the whole batch up front; a failing file never aborts its
// siblings, but context cancellation stops before the next file.
func (p *Pipeline) IngestBatch(ctx context.Context, userID uint, source string, files []BatchFile) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "ファイルがありません")
	}

	if !p.quota.Check(userID) {
		return nil, apperrors.New(apperrors.KindQuotaExceeded, "利用上限に達しました。プランをアップグレードしてください。")
	}

	result := &BatchResult{Results: make([]FileResult, 0, len(files))}
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		fr := p.ingestFile(ctx, userID, source, file)
		result.Results = append(result.Results, fr)
		result.Summary.Total++
		if fr.Status == StatusSuccess {
			result.Summary.Success++
		} else {
			result.Summary.Errors++
		}
	}
	return result, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, userID uint, source string, file BatchFile) FileResult {
	fr := FileResult{Filename: file.Filename, Status: StatusError}

	localPath, cleanup, err := p.spool(file)
	if err != nil {
		fr.Error = fmt.Sprintf("ファイルの保存に失敗しました: %v", err)
		return fr
	}
	defer cleanup()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	isPDF := ext == ".pdf"

	// PDFs go to the model as the whole document; the page renders are
	// only stored for display.
	extractPath := localPath
	var pagePaths []string
	if isPDF {
		pagePaths, err = p.prep.RasterizePDF(localPath)
		if err != nil || len(pagePaths) == 0 {
			fr.Error = fmt.Sprintf("PDFの変換に失敗しました: %v", err)
			return fr
		}
	} else {
		extractPath = p.compress(localPath, ext)
	}

	imageURL, storageKey, err := p.upload(ctx, extractPath, localPath, isPDF)
	if err != nil {
		fr.Error = fmt.Sprintf("アップロードに失敗しました: %v", err)
		return fr
	}

	var pageURLs, pageKeys []string
	if isPDF {
		pageURLs, pageKeys = p.uploadPages(ctx, localPath, pagePaths)
	}

	items, err := p.extractor.ExtractReceipt(ctx, extractPath)
	if err != nil {
		fr.Error = fmt.Sprintf("解析に失敗しました: %v", apperrors.Message(err))
		return fr
	}

	// A readable file with no recognizable receipts is still a processed
	// file: zero records, one usage unit.
	records := make([]*models.ReceiptRecord, 0, len(items))
	for _, item := range items {
		record := &models.ReceiptRecord{
			ID:               p.ids.Next(),
			UserID:           userID,
			Date:             item.Date,
			VendorName:       item.VendorName,
			TotalAmount:      item.TotalAmount,
			ImageURL:         imageURL,
			StorageKey:       storageKey,
			IsPDF:            isPDF,
			PDFImages:        pageURLs,
			PDFImageKeys:     pageKeys,
			Category:         models.DefaultCategory,
			Source:           source,
			OriginalFilename: file.Filename,
		}
		if err := p.records.Create(record); err != nil {
			fr.Error = fmt.Sprintf("保存に失敗しました: %v", err)
			return fr
		}
		records = append(records, record)
	}

	if err := p.quota.Increment(userID, 1); err != nil {
		fr.Error = fmt.Sprintf("利用回数の更新に失敗しました: %v", err)
		return fr
	}

	fr.Status = StatusSuccess
	fr.RecordsCount = len(records)
	fr.Records = records
	return fr
}

// spool writes the incoming stream to a uniquely named file in the
// upload directory.
func (p *Pipeline) spool(file BatchFile) (string, func(), error) {
	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", nil, err
	}
	ext := filepath.Ext(file.Filename)
	localPath := filepath.Join(p.uploadDir, uuid.New().String()+ext)

	out, err := os.Create(localPath)
	if err != nil {
		return "", nil, err
	}
	_, err = io.Copy(out, file.Reader)
	out.Close()
	if err != nil {
		os.Remove(localPath)
		return "", nil, err
	}

	created := []string{localPath}
	cleanup := func() {
		// Derived artifacts (compressed JPEG, page renders) share the
		// spool file's base name.
		base := strings.TrimSuffix(localPath, ext)
		matches, _ := filepath.Glob(base + "*")
		for _, m := range append(created, matches...) {
			os.Remove(m)
		}
	}
	return localPath, cleanup, nil
}

// compress shrinks raster images; unknown formats and failures fall back
// to the original file so a compression hiccup never loses an upload.
func (p *Pipeline) compress(localPath, ext string) string {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		compressed, err := p.prep.CompressImage(localPath)
		if err != nil {
			log.Warnf("[Ingest] Compression failed for %s, using original: %v", localPath, err)
			return localPath
		}
		return compressed
	default:
		return localPath
	}
}

// upload stores the primary artifact under receipts/: the compressed
// image, or for PDFs the original document.
func (p *Pipeline) upload(ctx context.Context, compressedPath, originalPath string, isPDF bool) (url, key string, err error) {
	source := compressedPath
	if isPDF {
		source = originalPath
	}
	key = "receipts/" + filepath.Base(source)
	url, err = p.blobs.Put(ctx, source, key)
	return url, key, err
}

// uploadPages pushes PDF page renders best effort; a failed page is
// logged and skipped.
func (p *Pipeline) uploadPages(ctx context.Context, pdfPath string, pagePaths []string) (urls, keys []string) {
	ts := time.Now().Unix()
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	for i, pagePath := range pagePaths {
		key := fmt.Sprintf("pdf_images/%d_%s_page%d.jpg", ts, base, i+1)
		url, err := p.blobs.Put(ctx, pagePath, key)
		if err != nil {
			log.Warnf("[Ingest] Page upload failed for %s: %v", pagePath, err)
			continue
		}
		urls = append(urls, url)
		keys = append(keys, key)
	}
	return urls, keys
}
