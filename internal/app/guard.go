package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"

	"estate_reviews/internal/domain"
)

const rateWindow = time.Hour

// RateGuard limits accepted submissions per client over a trailing hour. The
// raw IP is never stored; only its keyed hash reaches the submission log.
type RateGuard struct {
	log    domain.SubmissionLog
	secret []byte
	limit  int
	now    func() time.Time
}

// NewRateGuard returns a guard that is disabled when secret is empty or sl is nil.
func NewRateGuard(sl domain.SubmissionLog, secret string, perHour int) *RateGuard {
	if perHour <= 0 {
		perHour = 5
	}
	return &RateGuard{log: sl, secret: []byte(secret), limit: perHour, now: time.Now}
}

func (g *RateGuard) Enabled() bool { return g != nil && g.log != nil && len(g.secret) > 0 }

// HashIP is HMAC-SHA256(secret, ip) in hex.
func HashIP(secret []byte, ip string) string {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(ip))
	return hex.EncodeToString(m.Sum(nil))
}

// Check returns the client's hash, or ErrTooManyRequests once the ceiling is
// reached. A failing log read lets the request through.
func (g *RateGuard) Check(ctx context.Context, ip string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	h := HashIP(g.secret, ip)
	n, err := g.log.CountSince(ctx, h, g.now().Add(-rateWindow))
	if err != nil {
		log.Warn().Err(err).Msg("submission log read failed; rate limit skipped")
		return h, nil
	}
	if n >= g.limit {
		return h, domain.ErrTooManyRequests
	}
	return h, nil
}

// Record appends an entry for hash. Failures are logged only.
func (g *RateGuard) Record(ctx context.Context, hash string) {
	if !g.Enabled() || hash == "" {
		return
	}
	if err := g.log.Append(ctx, domain.SubmissionLogEntry{IPHash: hash, InsertedAt: g.now().UTC()}); err != nil {
		log.Warn().Err(err).Msg("submission log append failed")
	}
}
