package chatbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/ingest"
	"github.com/smartscan-app/smartscan/internal/pkg/linktoken"
)

type fakeBot struct {
	replies []string
}

func (f *fakeBot) ReplyText(replyToken, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeBot) GetMessageContent(messageID string) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

type fakeUsers struct {
	linked map[uint]string
}

func (f *fakeUsers) Create(user *models.User) error                   { return nil }
func (f *fakeUsers) GetByID(id uint) (*models.User, error)            { return nil, gorm.ErrRecordNotFound }
func (f *fakeUsers) GetByEmail(email string) (*models.User, error)    { return nil, gorm.ErrRecordNotFound }
func (f *fakeUsers) Update(user *models.User) error                   { return nil }
func (f *fakeUsers) Delete(id uint) error                             { return nil }
func (f *fakeUsers) List() ([]models.User, error)                     { return nil, nil }
func (f *fakeUsers) Count() (int64, error)                            { return 0, nil }

func (f *fakeUsers) GetByLineUserID(lineUserID string) (*models.User, error) {
	for id, line := range f.linked {
		if line == lineUserID {
			return &models.User{ID: id}, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) UpdateColumns(id uint, fields map[string]interface{}) error {
	if v, ok := fields["line_user_id"].(string); ok {
		f.linked[id] = v
	}
	return nil
}

type fakeTokens struct {
	tokens map[string]uint
}

func (f *fakeTokens) Generate(ctx context.Context, userID uint) (string, error) {
	return "ABCD1234", nil
}

func (f *fakeTokens) Redeem(ctx context.Context, token string) (uint, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return 0, linktoken.ErrNotFound
	}
	delete(f.tokens, token)
	return userID, nil
}

func (f *fakeTokens) Invalidate(ctx context.Context, userID uint) error { return nil }

func newTestHandler(bot *fakeBot, users *fakeUsers, tokens *fakeTokens) *Handler {
	return NewHandler(bot, users, tokens, nil, "channel-secret")
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	h := newTestHandler(&fakeBot{}, &fakeUsers{}, &fakeTokens{})
	body := []byte(`{"events": []}`)

	assert.True(t, h.VerifySignature(body, signBody("channel-secret", body)))
	assert.False(t, h.VerifySignature(body, signBody("wrong-secret", body)))
	assert.False(t, h.VerifySignature(body, ""))
}

func webhookBody(text string) []byte {
	return []byte(`{"events": [{
		"type": "message",
		"replyToken": "rt",
		"source": {"type": "user", "userId": "U123"},
		"message": {"type": "text", "id": "m1", "text": "` + text + `"}
	}]}`)
}

func TestWebhookLinksAccountOnValidToken(t *testing.T) {
	bot := &fakeBot{}
	users := &fakeUsers{linked: map[uint]string{}}
	tokens := &fakeTokens{tokens: map[string]uint{"ABCD1234": 42}}
	h := newTestHandler(bot, users, tokens)

	require.NoError(t, h.HandleWebhook(context.Background(), webhookBody("ABCD1234")))

	assert.Equal(t, "U123", users.linked[42])
	require.Len(t, bot.replies, 1)
	assert.Contains(t, bot.replies[0], "連携が完了")
}

func TestWebhookTokenIsSingleUse(t *testing.T) {
	bot := &fakeBot{}
	users := &fakeUsers{linked: map[uint]string{}}
	tokens := &fakeTokens{tokens: map[string]uint{"ABCD1234": 42}}
	h := newTestHandler(bot, users, tokens)

	require.NoError(t, h.HandleWebhook(context.Background(), webhookBody("ABCD1234")))
	require.NoError(t, h.HandleWebhook(context.Background(), webhookBody("ABCD1234")))

	require.Len(t, bot.replies, 2)
	assert.Contains(t, bot.replies[1], "無効")
}

func TestWebhookLowercaseTokenAccepted(t *testing.T) {
	bot := &fakeBot{}
	users := &fakeUsers{linked: map[uint]string{}}
	tokens := &fakeTokens{tokens: map[string]uint{"ABCD1234": 42}}
	h := newTestHandler(bot, users, tokens)

	require.NoError(t, h.HandleWebhook(context.Background(), webhookBody("abcd1234")))
	assert.Equal(t, "U123", users.linked[42])
}

func TestWebhookPlainTextGetsGuidance(t *testing.T) {
	bot := &fakeBot{}
	h := newTestHandler(bot, &fakeUsers{linked: map[uint]string{}}, &fakeTokens{tokens: map[string]uint{}})

	require.NoError(t, h.HandleWebhook(context.Background(), webhookBody("こんにちは")))
	require.Len(t, bot.replies, 1)
	assert.Contains(t, bot.replies[0], "画像を送信")
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := newTestHandler(&fakeBot{}, &fakeUsers{}, &fakeTokens{})
	assert.Error(t, h.HandleWebhook(context.Background(), []byte("not json")))
}

func TestFormatResult(t *testing.T) {
	result := &ingest.BatchResult{
		Results: []ingest.FileResult{{
			Status: ingest.StatusSuccess,
			Records: []*models.ReceiptRecord{
				{Date: "2025-03-01", VendorName: "セブンイレブン", TotalAmount: 1234},
			},
		}},
		Summary: ingest.BatchSummary{Total: 1, Success: 1},
	}

	text := formatResult(result)
	assert.Contains(t, text, "登録しました")
	assert.Contains(t, text, "セブンイレブン")
	assert.Contains(t, text, "¥1234")
}

func TestFormatResultZeroRecordSuccess(t *testing.T) {
	result := &ingest.BatchResult{
		Results: []ingest.FileResult{{Status: ingest.StatusSuccess, RecordsCount: 0}},
		Summary: ingest.BatchSummary{Total: 1, Success: 1},
	}

	text := formatResult(result)
	assert.Contains(t, text, "読み取れませんでした")
	assert.NotContains(t, text, "登録しました")
}

func TestFormatResultFailure(t *testing.T) {
	result := &ingest.BatchResult{
		Results: []ingest.FileResult{{Status: ingest.StatusError, Error: "解析に失敗しました"}},
		Summary: ingest.BatchSummary{Total: 1, Errors: 1},
	}

	text := formatResult(result)
	assert.Contains(t, text, "登録できませんでした")
	assert.Contains(t, text, "解析に失敗しました")
}
