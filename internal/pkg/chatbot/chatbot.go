// Package chatbot handles the LINE messaging webhook: account linking
// via one-time tokens and receipt ingestion from chat images.
package chatbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
	"github.com/smartscan-app/smartscan/internal/pkg/ingest"
	"github.com/smartscan-app/smartscan/internal/pkg/linktoken"
)

// BotClient is the narrow slice of the LINE client the handler needs.
type BotClient interface {
	ReplyText(replyToken, text string) error
	GetMessageContent(messageID string) (io.ReadCloser, error)
}

// LineClient adapts the LINE SDK client to BotClient.
type LineClient struct {
	bot *linebot.Client
}

func NewLineClient(channelSecret, channelToken string) (*LineClient, error) {
	bot, err := linebot.New(channelSecret, channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating line client: %w", err)
	}
	return &LineClient{bot: bot}, nil
}

func (c *LineClient) ReplyText(replyToken, text string) error {
	_, err := c.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).Do()
	return err
}

func (c *LineClient) GetMessageContent(messageID string) (io.ReadCloser, error) {
	resp, err := c.bot.GetMessageContent(messageID).Do()
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// Handler processes webhook deliveries.
type Handler struct {
	bot           BotClient
	users         repository.UserRepository
	tokens        linktoken.Store
	pipeline      *ingest.Pipeline
	channelSecret string
}

func NewHandler(bot BotClient, users repository.UserRepository, tokens linktoken.Store, pipeline *ingest.Pipeline, channelSecret string) *Handler {
	return &Handler{
		bot:           bot,
		users:         users,
		tokens:        tokens,
		pipeline:      pipeline,
		channelSecret: channelSecret,
	}
}

// VerifySignature checks the X-Line-Signature header against the raw
// request body.
func (h *Handler) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhook dispatches every event in a delivery. Event failures are
// logged per event; the webhook itself always succeeds so LINE does not
// retry the whole delivery.
func (h *Handler) HandleWebhook(ctx context.Context, body []byte) error {
	var payload struct {
		Events []*linebot.Event `json:"events"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "invalid webhook payload", err)
	}

	for _, event := range payload.Events {
		if event.Type != linebot.EventTypeMessage || event.Source == nil {
			continue
		}
		if err := h.handleMessage(ctx, event); err != nil {
			log.Warnf("[Chatbot] Event handling failed: %v", err)
		}
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, event *linebot.Event) error {
	switch message := event.Message.(type) {
	case *linebot.TextMessage:
		return h.handleText(ctx, event, message.Text)
	case *linebot.ImageMessage:
		return h.handleImage(ctx, event, message.ID)
	default:
		return nil
	}
}

// handleText treats a well-formed token as a linking attempt and answers
// anything else with usage guidance.
func (h *Handler) handleText(ctx context.Context, event *linebot.Event, text string) error {
	token := strings.ToUpper(strings.TrimSpace(text))
	if !linktoken.TokenPattern.MatchString(token) {
		return h.bot.ReplyText(event.ReplyToken,
			"領収書の画像を送信してください。アカウント連携はWebサイトで発行した連携コードを送信してください。")
	}

	userID, err := h.tokens.Redeem(ctx, token)
	if err != nil {
		return h.bot.ReplyText(event.ReplyToken,
			"連携コードが無効か、有効期限が切れています。Webサイトで新しいコードを発行してください。")
	}

	if err := h.users.UpdateColumns(userID, map[string]interface{}{
		"line_user_id": event.Source.UserID,
	}); err != nil {
		return fmt.Errorf("linking user %d: %w", userID, err)
	}
	return h.bot.ReplyText(event.ReplyToken, "アカウント連携が完了しました。領収書の画像を送信してください。")
}

// handleImage ingests a chat image for the linked account and replies
// with the extracted receipts.
func (h *Handler) handleImage(ctx context.Context, event *linebot.Event, messageID string) error {
	user, err := h.users.GetByLineUserID(event.Source.UserID)
	if err != nil {
		return h.bot.ReplyText(event.ReplyToken,
			"アカウントが連携されていません。Webサイトで連携コードを発行し、このチャットに送信してください。")
	}

	content, err := h.bot.GetMessageContent(messageID)
	if err != nil {
		return fmt.Errorf("fetching message content %s: %w", messageID, err)
	}
	defer content.Close()

	result, err := h.pipeline.IngestBatch(ctx, user.ID, models.SOURCE_LINE, []ingest.BatchFile{
		{Filename: messageID + ".jpg", Reader: content},
	})
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindQuotaExceeded) {
			return h.bot.ReplyText(event.ReplyToken, "利用上限に達しました。プランをアップグレードしてください。")
		}
		return h.bot.ReplyText(event.ReplyToken, "処理に失敗しました。時間をおいて再度お試しください。")
	}

	return h.bot.ReplyText(event.ReplyToken, formatResult(result))
}

// formatResult renders the ingestion outcome as a chat reply.
func formatResult(result *ingest.BatchResult) string {
	if result.Summary.Success == 0 {
		reason := "画像を読み取れませんでした。"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return "登録できませんでした。" + reason
	}

	var b strings.Builder
	count := 0
	for _, fr := range result.Results {
		for _, rec := range fr.Records {
			fmt.Fprintf(&b, "\n日付: %s\n店舗: %s\n金額: ¥%d\n", rec.Date, rec.VendorName, rec.TotalAmount)
			count++
		}
	}
	// The file was processed but held no recognizable receipt.
	if count == 0 {
		return "領収書を読み取れませんでした。別の画像でお試しください。"
	}
	return "領収書を登録しました。" + strings.TrimRight(b.String(), "\n")
}
