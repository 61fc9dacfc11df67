package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/infra/prometheus"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// verifyTimeout bounds both connecting to and reading from the provider so
// a slow upstream cannot stall the submission path. breakerCooldown is how
// long an open breaker waits before probing the provider again.
const (
	verifyTimeout   = 5 * time.Second
	breakerCooldown = 30 * time.Second
)

// Config is the captcha section of the service configuration.
type Config struct {
	Enabled      bool    `mapstructure:"enabled"`
	SecretKey    string  `mapstructure:"secret_key"`
	VerifyURL    string  `mapstructure:"verify_url"`
	MinimumScore float64 `mapstructure:"minimum_score"`
}

// TurnstileVerifier validates challenge tokens against Cloudflare's
// siteverify endpoint. Every failure mode collapses into one opaque error so
// a submitter cannot tell a missing token from a dead provider or a low
// score.
type TurnstileVerifier struct {
	logger  *logrus.Logger
	config  Config
	client  *http.Client
	breaker *providerBreaker
}

func NewTurnstileVerifier(logger *logrus.Logger, config Config) *TurnstileVerifier {
	if config.VerifyURL == "" {
		config.VerifyURL = DefaultVerifyURL
	}
	if config.MinimumScore == 0 {
		config.MinimumScore = 0.5
	}
	return &TurnstileVerifier{
		logger: logger,
		config: config,
		client: &http.Client{
			Timeout: verifyTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: verifyTimeout,
			},
		},
		breaker: newProviderBreaker(),
	}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the token with the provider. It returns nil when the feature
// is disabled by configuration.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.config.Enabled {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("missing captcha token")
	}
	if strings.TrimSpace(v.config.SecretKey) == "" {
		// Fail closed rather than waving submissions through with
		// verification silently off.
		v.logger.Error("captcha verification enabled but secret key is not configured")
		return fmt.Errorf("captcha secret key not configured")
	}

	var result verifyResponse
	start := time.Now()
	err := v.breaker.call(func() error {
		response, err := v.post(ctx, token, remoteIP)
		if err != nil {
			return err
		}
		result = *response
		return nil
	})
	prometheus.CaptchaVerifyLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("captcha provider rejected token: %v", result.ErrorCodes)
	}
	if result.Score != nil && *result.Score < v.config.MinimumScore {
		return fmt.Errorf("captcha score %.2f below minimum %.2f", *result.Score, v.config.MinimumScore)
	}
	return nil
}

func (v *TurnstileVerifier) post(ctx context.Context, token, remoteIP string) (*verifyResponse, error) {
	form := url.Values{
		"secret":   {v.config.SecretKey},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, v.config.VerifyURL, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify endpoint returned status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding verify response: %w", err)
	}
	return &result, nil
}
