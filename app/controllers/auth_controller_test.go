package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/internal/pkg/env"
	"github.com/smartscan-app/smartscan/internal/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	nextID  uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(user *models.User) error {
	user.ID = f.nextID
	f.nextID++
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByLineUserID(lineUserID string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(user *models.User) error                           { return nil }
func (f *fakeUserRepo) UpdateColumns(id uint, fields map[string]interface{}) error { return nil }
func (f *fakeUserRepo) Delete(id uint) error                                     { return nil }
func (f *fakeUserRepo) List() ([]models.User, error)                             { return nil, nil }
func (f *fakeUserRepo) Count() (int64, error)                                    { return 0, nil }

func newAuthApp(t *testing.T) (*fiber.App, *fakeUserRepo) {
	t.Helper()
	env.Env = map[string]string{"JWT_SECRET": "test-secret"}
	t.Cleanup(func() { env.Env = nil })

	issuer, err := security.NewTokenIssuer()
	require.NoError(t, err)

	users := newFakeUserRepo()
	ac := NewAuthController(users, issuer)

	app := fiber.New()
	app.Post("/register", ac.Register)
	app.Post("/login", ac.Login)
	return app, users
}

func postForm(t *testing.T, app *fiber.App, path string, values url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterAcceptsFormFields(t *testing.T) {
	app, users := newAuthApp(t)

	resp := postForm(t, app, "/register", url.Values{
		"email":    {"taro@example.com"},
		"password": {"secret123"},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.NotEmpty(t, payload["access_token"])
	assert.Equal(t, "bearer", payload["token_type"])

	created := users.byEmail["taro@example.com"]
	require.NotNil(t, created)
	assert.Equal(t, "free", created.Plan)
	assert.Equal(t, 10, created.UsageLimit)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app, _ := newAuthApp(t)

	form := url.Values{"email": {"taro@example.com"}, "password": {"secret123"}}
	require.Equal(t, fiber.StatusCreated, postForm(t, app, "/register", form).StatusCode)
	assert.Equal(t, fiber.StatusConflict, postForm(t, app, "/register", form).StatusCode)
}

func TestLoginFormRoundTrip(t *testing.T) {
	app, _ := newAuthApp(t)

	postForm(t, app, "/register", url.Values{
		"email":    {"taro@example.com"},
		"password": {"secret123"},
	})

	resp := postForm(t, app, "/login", url.Values{
		"email":    {"taro@example.com"},
		"password": {"secret123"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postForm(t, app, "/login", url.Values{
		"email":    {"taro@example.com"},
		"password": {"wrong"},
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
