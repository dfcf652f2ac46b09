// Package preview presents bundled artifacts in an isolated context.
//
// Document assembles the page: the project's index.html (or a shell with a
// #root mount node), the runtime library script tags, imported stylesheets
// and the artifact wrapped in a guard that reports failures through
// parent.postMessage as {type: 'iframe-error', message}.
//
// The untrusted side only ever posts; the trusted side reads:
//
//	Executor --post--> Channel --> Host --> Subscribe / Error
//
// Executors:
//   - HeadlessExecutor: pooled goja runtimes with a DOM shim and React doubles
//   - BrowserExecutor: headless Chrome through chromedp
//
// Host.Reset(run) is called at the start of every run so a fixed project
// never shows the previous run's error.
package preview
