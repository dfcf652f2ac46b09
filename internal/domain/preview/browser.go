package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
)

// capture records what the page posts to itself; a top-level document is
// its own parent, so postMessage lands on the same window.
const capture = `<script>
window.__previewMessages = [];
window.addEventListener('message', function (event) { window.__previewMessages.push(event.data); });
</script>`

// BrowserConfig configures a BrowserExecutor
type BrowserConfig struct {
	Timeout  time.Duration // whole run, browser start included
	Settle   time.Duration // wait after load for asynchronous errors
	ExecPath string        // Chrome binary; empty uses chromedp's lookup
}

// DefaultBrowserConfig returns the default browser configuration
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Timeout: 30 * time.Second,
		Settle:  500 * time.Millisecond,
	}
}

// BrowserExecutor loads documents in headless Chrome. Runtime libraries are
// fetched from the package host by the browser itself.
type BrowserExecutor struct {
	config BrowserConfig
	log    *logging.Logger
}

// NewBrowserExecutor creates a browser executor
func NewBrowserExecutor(cfg BrowserConfig, log *logging.Logger) *BrowserExecutor {
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBrowserConfig().Timeout
	}
	return &BrowserExecutor{config: cfg, log: log.Named("browser")}
}

// Present implements Executor
func (e *BrowserExecutor) Present(ctx context.Context, document string, post func(Message)) (*Presentation, error) {
	start := time.Now()
	page, err := withCapture(document)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.config.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, e.config.Timeout)
	defer cancel()

	var raw, rendered string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(page))),
		chromedp.WaitReady("body"),
		chromedp.Sleep(e.config.Settle),
		chromedp.Evaluate(`JSON.stringify(window.__previewMessages || [])`, &raw),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("browser preview failed: %w", err)
	}

	p := &Presentation{Errors: []string{}, Rendered: rendered}
	emit := collect(p, post)

	var posted []interface{}
	if err := sonic.UnmarshalString(raw, &posted); err != nil {
		return nil, fmt.Errorf("failed to decode posted messages: %w", err)
	}
	for _, data := range posted {
		if m, ok := ParseMessage(data); ok {
			emit(m)
		}
	}
	p.Duration = time.Since(start)

	e.log.Debug("browser preview finished",
		zap.Int("errors", len(p.Errors)),
		zap.Duration("duration", p.Duration))
	return p, nil
}

// Close implements Executor; every run owns its browser
func (e *BrowserExecutor) Close() error {
	return nil
}

// withCapture puts the message recorder ahead of every other script
func withCapture(document string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("failed to parse preview document: %w", err)
	}
	doc.Find("head").First().PrependHtml(capture)
	return doc.Html()
}
