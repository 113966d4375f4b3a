package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{apperrors.New(apperrors.KindValidation, "不正な入力"), fiber.StatusBadRequest, "不正な入力"},
		{apperrors.New(apperrors.KindQuotaExceeded, "利用上限"), fiber.StatusForbidden, "利用上限"},
		{apperrors.New(apperrors.KindNotFound, "見つかりません"), fiber.StatusNotFound, "見つかりません"},
		{errors.New("boom"), fiber.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		app := fiber.New()
		testErr := tt.err
		app.Get("/fail", func(c *fiber.Ctx) error {
			return respondError(c, testErr)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, tt.detail, payload["detail"])
	}
}

func TestSortByDateDesc(t *testing.T) {
	recs := []models.ReceiptRecord{
		{ID: "1", Date: "2025-01-15"},
		{ID: "2", Date: "2025-06-01"},
		{ID: "3", Date: "2024-12-31"},
		{ID: "4", Date: "2025-06-01"},
	}

	sortByDateDesc(recs)

	assert.Equal(t, []string{"2025-06-01", "2025-06-01", "2025-01-15", "2024-12-31"},
		[]string{recs[0].Date, recs[1].Date, recs[2].Date, recs[3].Date})
	// Equal dates keep their original relative order.
	assert.Equal(t, "2", recs[0].ID)
	assert.Equal(t, "4", recs[1].ID)
}
