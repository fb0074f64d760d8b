package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/verifier/internal/cache"
	"github.com/ppiankov/verifier/internal/metrics"
	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/retry"
	"github.com/ppiankov/verifier/internal/util"
	"github.com/ppiankov/verifier/internal/worker"
)

// livenessSleepFunc is the sleep between attempts (injectable for tests)
var livenessSleepFunc retry.SleepFunc = retry.ContextSleep

// LivenessChecker checks that a record's source URL resolves
type LivenessChecker struct {
	httpClient     *http.Client
	rules          *URLRules
	limiter        *worker.Limiter
	robots         *util.RobotsChecker
	verdicts       *cache.VerdictCache
	logger         *slog.Logger
	userAgent      string
	attemptTimeout time.Duration
	maxAttempts    int
	backoff        time.Duration
	urlOptional    map[string]bool
}

// LivenessOption configures a LivenessChecker
type LivenessOption func(*LivenessChecker)

// WithHTTPClient replaces the default outbound client
func WithHTTPClient(c *http.Client) LivenessOption {
	return func(l *LivenessChecker) { l.httpClient = c }
}

// WithLimiter throttles probes per host
func WithLimiter(limiter *worker.Limiter) LivenessOption {
	return func(l *LivenessChecker) { l.limiter = limiter }
}

// WithRobots feeds robots.txt crawl delays into the limiter
func WithRobots(robots *util.RobotsChecker) LivenessOption {
	return func(l *LivenessChecker) { l.robots = robots }
}

// WithVerdictCache reuses stable verdicts across runs
func WithVerdictCache(vc *cache.VerdictCache) LivenessOption {
	return func(l *LivenessChecker) { l.verdicts = vc }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) LivenessOption {
	return func(l *LivenessChecker) { l.logger = logger }
}

// NewLivenessChecker creates a checker from config
func NewLivenessChecker(cfg model.LivenessConfig, httpCfg model.HTTPConfig, opts ...LivenessOption) *LivenessChecker {
	l := &LivenessChecker{
		rules:          NewURLRules(&cfg),
		logger:         slog.Default(),
		userAgent:      httpCfg.UserAgent,
		attemptTimeout: cfg.AttemptTimeout,
		maxAttempts:    cfg.MaxAttempts,
		backoff:        cfg.Backoff,
		urlOptional:    make(map[string]bool),
	}
	if l.attemptTimeout <= 0 {
		l.attemptTimeout = 30 * time.Second
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = 3
	}
	for _, p := range cfg.URLOptionalProducers {
		l.urlOptional[p] = true
	}

	for _, opt := range opts {
		opt(l)
	}
	if l.httpClient == nil {
		l.httpClient = util.NewHTTPClient(httpCfg)
	}
	if l.robots != nil && l.limiter == nil {
		l.limiter = worker.NewLimiter(0, 1)
	}

	return l
}

// Check judges the source URL of rec. The error is non-nil only when ctx is done.
func (l *LivenessChecker) Check(ctx context.Context, rec model.Record) (model.Verdict, error) {
	if rec.SourceURL == nil {
		return model.Verdict{Reason: model.ReasonValid, Pattern: "absent", CheckedAt: time.Now()}, nil
	}

	raw := strings.TrimSpace(*rec.SourceURL)
	if raw == "" {
		if l.urlOptional[rec.ProducerID] {
			return model.Verdict{Reason: model.ReasonValid, Pattern: "optional", CheckedAt: time.Now()}, nil
		}
		return model.Verdict{Reason: model.ReasonEmptyURL, CheckedAt: time.Now()}, nil
	}

	return l.CheckURL(ctx, raw)
}

// CheckURL runs the rule checks and, if needed, the network probe for rawURL
func (l *LivenessChecker) CheckURL(ctx context.Context, rawURL string) (model.Verdict, error) {
	verdict := model.Verdict{URL: rawURL, CheckedAt: time.Now()}

	u, err := url.Parse(rawURL)
	if err != nil {
		verdict.Reason = model.ReasonInvalidURL
		verdict.Error = err.Error()
		return verdict, nil
	}

	if rule, ok := l.rules.Exempt(u); ok {
		verdict.Reason = model.ReasonValid
		verdict.Pattern = "exempt:" + rule
		return verdict, nil
	}

	if rule, ok := l.rules.Fake(u); ok {
		verdict.Reason = model.ReasonFakeURLPattern
		verdict.Pattern = rule
		return verdict, nil
	}

	if msg, ok := checkScheme(u); !ok {
		verdict.Reason = model.ReasonInvalidURL
		verdict.Error = msg
		return verdict, nil
	}

	if cached, ok := l.verdicts.Get(rawURL); ok {
		metrics.LivenessCacheHits.Inc()
		return cached, nil
	}

	start := time.Now()
	verdict, err = l.probe(ctx, u)
	if err != nil {
		return verdict, err
	}
	metrics.LivenessLatency.WithLabelValues(string(verdict.Reason)).Observe(time.Since(start).Seconds())

	if err := l.verdicts.Put(verdict); err != nil {
		l.logger.Warn("cache liveness verdict", "url", rawURL, "error", err)
	}
	return verdict, nil
}

// probeError is a transient failure of a single attempt
type probeError struct {
	reason model.Reason
	status int
	err    error
}

func (e *probeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.reason, e.err)
	}
	return fmt.Sprintf("%s: HTTP %d", e.reason, e.status)
}

func (e *probeError) Unwrap() error { return e.err }

func isTransientProbe(err error) bool {
	var pe *probeError
	return errors.As(err, &pe)
}

func (l *LivenessChecker) probe(ctx context.Context, u *url.URL) (model.Verdict, error) {
	rawURL := u.String()

	if l.robots != nil {
		if delay, err := l.robots.CrawlDelay(ctx, rawURL); err == nil && delay > 0 {
			l.limiter.ApplyCrawlDelay(u.Hostname(), delay)
		}
	}

	policy := retry.Policy{
		MaxAttempts: l.maxAttempts,
		Backoff:     retry.Fixed(l.backoff),
		Retryable:   isTransientProbe,
		Sleep:       livenessSleepFunc,
	}

	verdict, attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (model.Verdict, error) {
		return l.attempt(ctx, rawURL)
	})
	verdict.URL = rawURL
	verdict.Attempts = attempts
	verdict.CheckedAt = time.Now()

	if err == nil {
		return verdict, nil
	}

	var pe *probeError
	if errors.As(err, &pe) {
		verdict.Reason = pe.reason
		verdict.StatusCode = pe.status
		if pe.err != nil {
			verdict.Error = pe.err.Error()
		}
		l.logger.Debug("liveness check exhausted", "url", rawURL, "reason", pe.reason, "attempts", attempts)
		return verdict, nil
	}

	return verdict, err
}

// attempt makes one HEAD request, repeated as GET when the server answers
// 405 or 501 to HEAD
func (l *LivenessChecker) attempt(ctx context.Context, rawURL string) (model.Verdict, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx, rawURL); err != nil {
			if ctx.Err() != nil {
				return model.Verdict{}, ctx.Err()
			}
			// the limiter cannot grant a token before the deadline
			return model.Verdict{}, &probeError{reason: model.ReasonTimeout, err: err}
		}
	}

	resp, err := l.request(ctx, http.MethodHead, rawURL)
	method := http.MethodHead
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		metrics.LivenessAttempts.WithLabelValues(method, "refused").Inc()
		resp, err = l.request(ctx, http.MethodGet, rawURL)
		method = http.MethodGet
	}

	verdict := model.Verdict{Method: method}

	if err != nil {
		if ctx.Err() != nil {
			return verdict, ctx.Err()
		}
		// A redirect loop answers the same way on every attempt
		if errors.Is(err, util.ErrTooManyRedirects) {
			verdict.Reason = model.ReasonInvalidURL
			verdict.Error = err.Error()
			metrics.LivenessAttempts.WithLabelValues(method, string(verdict.Reason)).Inc()
			return verdict, nil
		}
		reason := model.ReasonConnectionError
		if isTimeout(err) {
			reason = model.ReasonTimeout
		}
		metrics.LivenessAttempts.WithLabelValues(method, string(reason)).Inc()
		return verdict, &probeError{reason: reason, err: err}
	}

	verdict.StatusCode = resp.StatusCode
	if final := resp.Request.URL.String(); final != rawURL {
		verdict.RedirectURL = final
	}

	status := resp.StatusCode
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Paywalled or bot-blocked pages exist
		verdict.Reason = model.ReasonValid
	case status == http.StatusNotFound || status == http.StatusGone:
		verdict.Reason = model.ReasonNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		metrics.LivenessAttempts.WithLabelValues(method, string(model.ReasonServerError)).Inc()
		return verdict, &probeError{reason: model.ReasonServerError, status: status}
	case status >= 400:
		verdict.Reason = model.ReasonInvalidURL
	default:
		verdict.Reason = model.ReasonValid
	}

	metrics.LivenessAttempts.WithLabelValues(method, string(verdict.Reason)).Inc()
	return verdict, nil
}

func (l *LivenessChecker) request(ctx context.Context, method, rawURL string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, l.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	// Only the status line matters
	_ = resp.Body.Close()
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
