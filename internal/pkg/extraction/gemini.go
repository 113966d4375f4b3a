// Package extraction talks to the Gemini vision model and turns receipt
// images into structured line items.
package extraction

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
)

// receiptPrompt instructs the model in Japanese to return a plain JSON
// array. Two-digit years are mapped onto the 2000s and Japanese era
// dates are forbidden outright.
const receiptPrompt = `領収書を解析し [ { "date": "YYYY-MM-DD", "vendor_name": "...", "total_amount": 0 } ] のJSON形式で返せ。※ 年が2桁(25, 26等)の場合は2025年, 2026年と解釈。和暦禁止。`

const (
	defaultModel = "gemini-2.0-flash"
	maxAttempts  = 3
	pollInterval = time.Second
	pollTimeout  = 60 * time.Second
)

// Extractor is the pipeline-facing contract.
type Extractor interface {
	ExtractReceipt(ctx context.Context, imagePath string) ([]LineItem, error)
}

// Client extracts receipt data via the Gemini Files API.
type Client struct {
	genai *genai.Client
	model string
}

// NewClient dials Gemini with the given API key. An empty model name
// falls back to the default flash model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{genai: gc, model: model}, nil
}

func (c *Client) Close() error {
	return c.genai.Close()
}

// ExtractReceipt uploads the image, waits for the file to become active
// and asks the model for line items. Transient failures are retried with
// exponential backoff before the extraction is given up on.
func (c *Client) ExtractReceipt(ctx context.Context, imagePath string) ([]LineItem, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff(attempt)
			log.Warnf("[Extraction] Retry %d for %s after %v: %v", attempt, filepath.Base(imagePath), backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperrors.Wrap(apperrors.KindExtraction, "extraction cancelled", ctx.Err())
			}
		}

		items, err := c.extractOnce(ctx, imagePath)
		if err == nil {
			return items, nil
		}
		lastErr = err
	}
	return nil, apperrors.Wrap(apperrors.KindExtraction, "receipt extraction failed", lastErr)
}

// retryBackoff doubles the wait per retry, starting at one second.
func retryBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

func (c *Client) extractOnce(ctx context.Context, imagePath string) ([]LineItem, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", imagePath, err)
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	uploaded, err := c.genai.UploadFile(ctx, "", f, &genai.UploadFileOptions{MIMEType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("uploading to gemini: %w", err)
	}
	defer func() {
		if derr := c.genai.DeleteFile(ctx, uploaded.Name); derr != nil {
			log.Debugf("[Extraction] Could not delete uploaded file %s: %v", uploaded.Name, derr)
		}
	}()

	active, err := c.awaitActive(ctx, uploaded)
	if err != nil {
		return nil, err
	}

	model := c.genai.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.FileData{MIMEType: active.MIMEType, URI: active.URI},
		genai.Text(receiptPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	return ParseItems(responseText(resp))
}

// awaitActive polls the uploaded file until processing finishes. Files
// stuck in processing past pollTimeout are treated as failed.
func (c *Client) awaitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	deadline := time.Now().Add(pollTimeout)
	for file.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("file %s still processing after %v", file.Name, pollTimeout)
		}
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		var err error
		file, err = c.genai.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("polling file state: %w", err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("gemini could not process file %s", file.Name)
	}
	return file, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
