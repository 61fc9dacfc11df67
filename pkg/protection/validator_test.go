package protection

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	deny  map[Dimension]bool
	calls []Dimension
}

func (f *fakeLimiter) TryConsume(dimension Dimension, _ string) bool {
	f.calls = append(f.calls, dimension)
	return !f.deny[dimension]
}

type fakeCaptcha struct {
	err       error
	calls     int
	lastToken string
	lastIP    string
}

func (f *fakeCaptcha) Verify(_ context.Context, token, remoteIP string) error {
	f.calls++
	f.lastToken = token
	f.lastIP = remoteIP
	return f.err
}

type fakeRecorder struct {
	kinds []string
}

func (f *fakeRecorder) RecordOutcome(_ context.Context, kind string) {
	f.kinds = append(f.kinds, kind)
}

type validatorFixture struct {
	validator *Validator
	limiter   *fakeLimiter
	captcha   *fakeCaptcha
	recorder  *fakeRecorder
}

func newValidatorFixture(t *testing.T) *validatorFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hasher, err := NewHasher("test-salt")
	require.NoError(t, err)

	limiter := &fakeLimiter{deny: map[Dimension]bool{}}
	captcha := &fakeCaptcha{}
	recorder := &fakeRecorder{}

	return &validatorFixture{
		validator: NewValidator(logger, hasher, limiter, captcha, recorder),
		limiter:   limiter,
		captcha:   captcha,
		recorder:  recorder,
	}
}

func validSubmission() *Submission {
	return &Submission{
		SenderName:   "Alice",
		SenderEmail:  "alice@example.com",
		Subject:      "Collaboration",
		Message:      "I enjoyed your latest post and would like to chat.",
		CaptchaToken: "token-123",
		ClientIP:     "203.0.113.7",
		UserAgent:    "Mozilla/5.0",
	}
}

func TestValidateSubmission_Accepted(t *testing.T) {
	f := newValidatorFixture(t)
	sub := validSubmission()

	err := f.validator.ValidateSubmission(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, []string{"accepted"}, f.recorder.kinds)
	assert.Equal(t, 1, f.captcha.calls)
	assert.Equal(t, "token-123", f.captcha.lastToken)
	assert.Equal(t, "203.0.113.7", f.captcha.lastIP)
}

func TestValidateSubmission_HoneypotRejectsBeforeAnythingElse(t *testing.T) {
	f := newValidatorFixture(t)
	sub := validSubmission()
	sub.Website = "http://spam.example"

	err := f.validator.ValidateSubmission(context.Background(), sub)

	var rejection *ValidationError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, KindBotDetected, rejection.Kind)
	assert.Equal(t, 400, rejection.StatusCode)

	assert.Empty(t, f.limiter.calls, "rate limits must not be consumed for honeypot hits")
	assert.Zero(t, f.captcha.calls)
	assert.Equal(t, []string{"bot_detected"}, f.recorder.kinds)
}

func TestValidateSubmission_RateLimitOrderAndRejection(t *testing.T) {
	f := newValidatorFixture(t)

	err := f.validator.ValidateSubmission(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t,
		[]Dimension{DimensionIP, DimensionName, DimensionEmail, DimensionIdentity},
		f.limiter.calls,
	)

	f = newValidatorFixture(t)
	f.limiter.deny[DimensionIdentity] = true

	err = f.validator.ValidateSubmission(context.Background(), validSubmission())

	var rejection *ValidationError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, KindRateLimitExceeded, rejection.Kind)
	assert.Equal(t, 429, rejection.StatusCode)
	assert.Zero(t, f.captcha.calls, "captcha must not be called once a limit trips")
	assert.Equal(t, []string{"rate_limit_exceeded"}, f.recorder.kinds)
}

func TestValidateSubmission_CaptchaFailure(t *testing.T) {
	f := newValidatorFixture(t)
	cause := errors.New("provider unreachable")
	f.captcha.err = cause

	sub := validSubmission()
	err := f.validator.ValidateSubmission(context.Background(), sub)

	var rejection *ValidationError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, KindInvalidCaptcha, rejection.Kind)
	assert.ErrorIs(t, err, cause)

	// A rejected submission is never mutated.
	assert.Equal(t, "Collaboration", sub.Subject)
	assert.Equal(t, []string{"invalid_captcha"}, f.recorder.kinds)
}

func TestValidateSubmission_ContentRejected(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{
			name:    "too many links",
			message: "https://a.example https://b.example https://c.example",
		},
		{
			name:    "spam keyword",
			message: "Click Here for a great deal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newValidatorFixture(t)
			sub := validSubmission()
			sub.Message = tt.message

			err := f.validator.ValidateSubmission(context.Background(), sub)

			var rejection *ValidationError
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, KindContentRejected, rejection.Kind)
			assert.Equal(t, tt.message, sub.Message, "rejected content must not be sanitized")
		})
	}
}

func TestValidateSubmission_SanitizesAcceptedFieldsInPlace(t *testing.T) {
	f := newValidatorFixture(t)
	sub := validSubmission()
	sub.SenderName = " <b>Alice</b> "
	sub.Message = "Hello\x00 there"

	err := f.validator.ValidateSubmission(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "Alice", sub.SenderName)
	assert.Equal(t, "Hello there", sub.Message)
}

func TestValidateSubmission_UnknownIPStillValidated(t *testing.T) {
	f := newValidatorFixture(t)
	sub := validSubmission()
	sub.ClientIP = ""

	err := f.validator.ValidateSubmission(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "unknown", f.captcha.lastIP)
}
