package protection

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/utils"
)

// Submission is the untrusted contact-form input plus the request metadata
// the transport layer resolved. Free-text fields are sanitized in place once
// every check has passed; a rejected submission is never mutated.
type Submission struct {
	SenderName   string
	SenderEmail  string
	Subject      string
	Message      string
	Website      string // honeypot; humans never see or fill this field
	CaptchaToken string

	ClientIP  string
	UserAgent string
}

// CaptchaVerifier validates a challenge token with the external provider.
// A nil error means the token was accepted; every failure mode (missing
// token, provider unreachable, low score) must come back as a plain error so
// rejections stay indistinguishable to the submitter.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// OutcomeRecorder accumulates accepted/rejected counters per outcome kind.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, kind string)
}

const outcomeAccepted = "accepted"

// Validator sequences every defense layer over one submission. Checks run
// cheapest first: the honeypot and rate limits are pure in-memory work and
// fence off most bot traffic before the network-bound captcha call.
type Validator struct {
	logger  *logrus.Logger
	hasher  *Hasher
	limiter Limiter
	captcha CaptchaVerifier
	stats   OutcomeRecorder
}

func NewValidator(
	logger *logrus.Logger,
	hasher *Hasher,
	limiter Limiter,
	captcha CaptchaVerifier,
	stats OutcomeRecorder,
) *Validator {
	return &Validator{
		logger:  logger,
		hasher:  hasher,
		limiter: limiter,
		captcha: captcha,
		stats:   stats,
	}
}

// rateLimitOrder fixes the sequence of dimension checks. Every dimension is
// enforced independently; the first one out of tokens rejects the whole
// submission.
var rateLimitOrder = []Dimension{
	DimensionIP,
	DimensionName,
	DimensionEmail,
	DimensionIdentity,
}

// ValidateSubmission runs the full pipeline. On success the submission's
// free-text fields are sanitized in place and the return is nil; otherwise
// a *ValidationError describes the rejection and the submission is left
// untouched.
func (v *Validator) ValidateSubmission(ctx context.Context, sub *Submission) error {
	identity := v.hasher.Identify(sub.ClientIP, sub.SenderName, sub.SenderEmail)

	if err := v.checkHoneypot(ctx, sub, identity); err != nil {
		return err
	}
	if err := v.checkRateLimits(ctx, identity, sub.UserAgent); err != nil {
		return err
	}
	if err := v.checkCaptcha(ctx, sub, identity); err != nil {
		return err
	}
	if err := v.checkContent(ctx, sub, identity); err != nil {
		return err
	}

	sub.SenderName = SanitizeText(sub.SenderName)
	sub.SenderEmail = SanitizeText(sub.SenderEmail)
	sub.Subject = SanitizeText(sub.Subject)
	sub.Message = SanitizeText(sub.Message)

	v.record(ctx, outcomeAccepted)
	return nil
}

func (v *Validator) checkHoneypot(ctx context.Context, sub *Submission, identity Identity) error {
	if strings.TrimSpace(sub.Website) == "" {
		return nil
	}
	rejection := errBotDetected()
	v.logRejection(rejection, identity, sub.UserAgent).Warn("honeypot field populated")
	v.record(ctx, string(rejection.Kind))
	return rejection
}

func (v *Validator) checkRateLimits(ctx context.Context, identity Identity, userAgent string) error {
	keys := map[Dimension]string{
		DimensionIP:       identity.IPHash,
		DimensionName:     identity.NameHash,
		DimensionEmail:    identity.EmailHash,
		DimensionIdentity: identity.IdentityHash,
	}
	for _, dimension := range rateLimitOrder {
		if v.limiter.TryConsume(dimension, keys[dimension]) {
			continue
		}
		rejection := errRateLimitExceeded()
		// The tripped dimension is logged but never surfaced to the client.
		v.logRejection(rejection, identity, userAgent).
			WithField("dimension", string(dimension)).
			Warn("contact form rate limit exceeded")
		v.record(ctx, string(rejection.Kind))
		return rejection
	}
	return nil
}

func (v *Validator) checkCaptcha(ctx context.Context, sub *Submission, identity Identity) error {
	err := v.captcha.Verify(ctx, sub.CaptchaToken, identity.ClientIP)
	if err == nil {
		return nil
	}
	rejection := errInvalidCaptcha(err)
	v.logRejection(rejection, identity, sub.UserAgent).
		WithError(err).
		Warn("captcha verification failed")
	v.record(ctx, string(rejection.Kind))
	return rejection
}

func (v *Validator) checkContent(ctx context.Context, sub *Submission, identity Identity) error {
	if exceedsLinkLimit(sub.Message) {
		rejection := errContentRejected()
		v.logRejection(rejection, identity, sub.UserAgent).
			Warn("rejected contact message for excessive URLs")
		v.record(ctx, string(rejection.Kind))
		return rejection
	}
	if keyword, ok := matchSpamKeyword(sub.Message); ok {
		rejection := errContentRejected()
		v.logRejection(rejection, identity, sub.UserAgent).
			WithField("keyword", keyword).
			Warn("rejected contact message for spam keyword match")
		v.record(ctx, string(rejection.Kind))
		return rejection
	}
	return nil
}

// logRejection builds the shared log entry for a rejected submission. Only
// hashed identifiers appear; the raw IP, name and email never reach the log.
func (v *Validator) logRejection(rejection *ValidationError, identity Identity, userAgent string) *logrus.Entry {
	ua := utils.ParseUserAgent(userAgent)
	return v.logger.WithFields(logrus.Fields{
		"kind":          string(rejection.Kind),
		"ip_hash":       identity.IPHash,
		"identity_hash": identity.IdentityHash,
		"ua_browser":    ua.Browser,
		"ua_device":     ua.Device,
		"ua_is_bot":     ua.Bot,
	})
}

func (v *Validator) record(ctx context.Context, kind string) {
	if v.stats != nil {
		v.stats.RecordOutcome(ctx, kind)
	}
}
