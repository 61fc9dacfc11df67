package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/formshield/formshield/pkg/domain/message"
	handlers "github.com/formshield/formshield/pkg/handlers/http"
	"github.com/formshield/formshield/pkg/protection"
)

type fakeLimiter struct {
	deny bool
}

func (f *fakeLimiter) TryConsume(protection.Dimension, string) bool {
	return !f.deny
}

type fakeCaptcha struct {
	err error
}

func (f *fakeCaptcha) Verify(context.Context, string, string) error {
	return f.err
}

type fakeRepository struct {
	created []*message.Message
	err     error
}

func (f *fakeRepository) Create(_ context.Context, entity *message.Message) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, entity)
	return nil
}

func (f *fakeRepository) GetByID(context.Context, uuid.UUID) (*message.Message, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(context.Context) ([]message.Message, error) {
	return nil, nil
}

func (f *fakeRepository) ListByReadStatus(context.Context, bool) ([]message.Message, error) {
	return nil, nil
}

func (f *fakeRepository) MarkAsRead(context.Context, uuid.UUID) (*message.Message, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Delete(context.Context, uuid.UUID) error {
	return gorm.ErrRecordNotFound
}

type fakeNotifier struct {
	sent []*message.Message
}

func (f *fakeNotifier) SendNewMessageNotification(_ context.Context, entity *message.Message) error {
	f.sent = append(f.sent, entity)
	return nil
}

type createMessageFixture struct {
	app      *fiber.App
	limiter  *fakeLimiter
	captcha  *fakeCaptcha
	repo     *fakeRepository
	notifier *fakeNotifier
}

func newCreateMessageFixture(t *testing.T) *createMessageFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hasher, err := protection.NewHasher("test-salt")
	require.NoError(t, err)

	limiter := &fakeLimiter{}
	captcha := &fakeCaptcha{}
	repo := &fakeRepository{}
	notifier := &fakeNotifier{}

	validator := protection.NewValidator(logger, hasher, limiter, captcha, nil)
	handler := handlers.NewCreateMessageHandler(logger, validator, repo, notifier)

	app := fiber.New()
	app.Post("/api/v1/messages", handler.Handle)

	return &createMessageFixture{
		app:      app,
		limiter:  limiter,
		captcha:  captcha,
		repo:     repo,
		notifier: notifier,
	}
}

func postMessage(t *testing.T, app *fiber.App, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/messages", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"sender_name":   "Alice",
		"sender_email":  "alice@example.com",
		"subject":       "Collaboration",
		"message":       "I enjoyed your latest post and would like to chat.",
		"captcha_token": "token-123",
	}
}

func TestCreateMessage_Accepted(t *testing.T) {
	f := newCreateMessageFixture(t)

	status, body := postMessage(t, f.app, validBody())

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Alice", body["sender_name"])

	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "alice@example.com", f.repo.created[0].SenderEmail)
	assert.False(t, f.repo.created[0].IsRead)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.repo.created[0].ID, f.notifier.sent[0].ID)
}

func TestCreateMessage_SanitizesBeforePersisting(t *testing.T) {
	f := newCreateMessageFixture(t)

	body := validBody()
	body["subject"] = "<b>Hello</b>"
	status, _ := postMessage(t, f.app, body)

	assert.Equal(t, fiber.StatusCreated, status)
	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "Hello", f.repo.created[0].Subject)
}

func TestCreateMessage_HoneypotRejected(t *testing.T) {
	f := newCreateMessageFixture(t)

	body := validBody()
	body["website"] = "http://spam.example"
	status, resp := postMessage(t, f.app, body)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NotEmpty(t, resp["error"])
	assert.Empty(t, f.repo.created, "rejected submissions must not be stored")
	assert.Empty(t, f.notifier.sent)
}

func TestCreateMessage_RateLimited(t *testing.T) {
	f := newCreateMessageFixture(t)
	f.limiter.deny = true

	status, resp := postMessage(t, f.app, validBody())

	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "too many contact form submissions", resp["error"])
	assert.Empty(t, f.repo.created)
}

func TestCreateMessage_CaptchaRejected(t *testing.T) {
	f := newCreateMessageFixture(t)
	f.captcha.err = assert.AnError

	status, resp := postMessage(t, f.app, validBody())

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid captcha", resp["error"])
	assert.Empty(t, f.repo.created)
}

func TestCreateMessage_RequestValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]interface{})
		expected string
	}{
		{
			name:     "missing sender name",
			mutate:   func(b map[string]interface{}) { b["sender_name"] = "  " },
			expected: "sender_name is required",
		},
		{
			name:     "missing message",
			mutate:   func(b map[string]interface{}) { b["message"] = "" },
			expected: "message is required",
		},
		{
			name:     "malformed email",
			mutate:   func(b map[string]interface{}) { b["sender_email"] = "not-an-address" },
			expected: "sender_email is not a valid address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCreateMessageFixture(t)

			body := validBody()
			tt.mutate(body)
			status, resp := postMessage(t, f.app, body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tt.expected, resp["error"])
			assert.Empty(t, f.repo.created)
		})
	}
}

func TestCreateMessage_RepositoryFailure(t *testing.T) {
	f := newCreateMessageFixture(t)
	f.repo.err = assert.AnError

	status, resp := postMessage(t, f.app, validBody())

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", resp["error"])
	assert.Empty(t, f.notifier.sent)
}
