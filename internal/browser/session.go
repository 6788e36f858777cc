// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

// Session is one browser tab implementing schemas.Page. It is the only type
// in the repository that talks CDP; everything above it sees the Page
// interface.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.Page = (*Session)(nil)

// DefaultAllocatorOptions builds the Chrome launch options for a config.
// Defaults favor container stability; user args are merged on top.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts,
			chromedp.IgnoreCertErrors,
			chromedp.Flag("allow-insecure-localhost", true))
	}
	for _, arg := range cfg.Args {
		key := strings.TrimPrefix(arg, "--")
		if k, v, found := strings.Cut(key, "="); found {
			opts = append(opts, chromedp.Flag(k, v))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// NewSession launches a browser process and opens one tab. Close releases
// both.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, DefaultAllocatorOptions(cfg)...)

	ctxOpts := []chromedp.ContextOption{}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// Connect the target now so launch failures surface here, not on the
	// first action.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Session{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
	}, nil
}

// Navigate loads a URL and waits for the document body, then sits out the
// configured post-load delay so late scripts can finish wiring the page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	start := time.Now()
	err := s.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	s.logger.Info("Navigation complete",
		zap.String("url", url),
		zap.Duration("duration", time.Since(start)))

	if s.cfg.PostLoadWait > 0 {
		t := time.NewTimer(s.cfg.PostLoadWait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// Close shuts the tab and the browser process. Safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	s.cancel()
	s.allocCancel()
	return nil
}

// run executes chromedp actions on the session tab while honoring the
// caller's deadline.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return errors.New("session is closed")
	}

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(s.ctx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// evaluate runs a script in the page and decodes the result by value.
// Promises are awaited and page-side console noise is suppressed.
func (s *Session) evaluate(ctx context.Context, script string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

// jsResult is the uniform {ok, error} shape every action script returns.
type jsResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Session) runActionScript(ctx context.Context, what, script string) error {
	var res jsResult
	if err := s.evaluate(ctx, script, &res); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !res.OK {
		return fmt.Errorf("%s: %s", what, res.Error)
	}
	return nil
}

// jsonEncode safely embeds a value (especially strings) into injected JS.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// -- schemas.Page implementation --

func (s *Session) CollectCandidates(ctx context.Context) ([]schemas.RawCandidate, error) {
	var out []schemas.RawCandidate
	if err := s.evaluate(ctx, jsScan, &out); err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	s.logger.Debug("Page scan complete", zap.Int("candidates", len(out)))
	return out, nil
}

func (s *Session) ResolveQuery(ctx context.Context, q schemas.ElementQuery) ([]schemas.Candidate, error) {
	payload := map[string]string{
		"ref":          string(q.Ref),
		"selector":     q.Selector,
		"textContains": q.TextContains,
	}
	var out []schemas.Candidate
	script := fmt.Sprintf(jsResolveQuery, jsonEncode(payload))
	if err := s.evaluate(ctx, script, &out); err != nil {
		return nil, fmt.Errorf("resolving element query: %w", err)
	}
	return out, nil
}

func (s *Session) PerformClick(ctx context.Context, ref schemas.PageRef) error {
	return s.runActionScript(ctx, "click", fmt.Sprintf(jsClick, jsonEncode(string(ref))))
}

func (s *Session) PerformType(ctx context.Context, ref schemas.PageRef, value string) error {
	return s.runActionScript(ctx, "type",
		fmt.Sprintf(jsType, jsonEncode(string(ref)), jsonEncode(value)))
}

func (s *Session) PerformSetSelect(ctx context.Context, ref schemas.PageRef, index int) error {
	return s.runActionScript(ctx, "select",
		fmt.Sprintf(jsSetSelect, jsonEncode(string(ref)), index))
}

func (s *Session) PerformClear(ctx context.Context, ref schemas.PageRef) error {
	return s.runActionScript(ctx, "clear", fmt.Sprintf(jsClear, jsonEncode(string(ref))))
}

func (s *Session) OuterHTML(ctx context.Context, ref schemas.PageRef) (string, error) {
	script := fmt.Sprintf(jsFindRef+`
((ref) => {
	const el = findRef(ref);
	return el ? el.outerHTML : '';
})(%s)`, jsonEncode(string(ref)))
	var html string
	if err := s.evaluate(ctx, script, &html); err != nil {
		return "", fmt.Errorf("reading outer html: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("no element for ref %s", ref)
	}
	return html, nil
}

func (s *Session) ObserveState(ctx context.Context) (schemas.PageState, error) {
	var state schemas.PageState
	if err := s.evaluate(ctx, jsObserveState, &state); err != nil {
		return schemas.PageState{}, fmt.Errorf("observing page state: %w", err)
	}
	return state, nil
}

func (s *Session) InstallMutationWatch(ctx context.Context) error {
	var installed bool
	if err := s.evaluate(ctx, jsInstallMutationWatch, &installed); err != nil {
		return fmt.Errorf("installing mutation watch: %w", err)
	}
	return nil
}

func (s *Session) ConsumeMutationFlag(ctx context.Context) (bool, error) {
	var mutated bool
	if err := s.evaluate(ctx, jsConsumeMutationFlag, &mutated); err != nil {
		return false, fmt.Errorf("reading mutation flag: %w", err)
	}
	return mutated, nil
}
