package preview

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SandboxAttr is the iframe sandbox attribute for the preview context. It
// grants script execution only: no same-origin, top navigation or popups.
const SandboxAttr = "allow-scripts"

// ContentSecurityPolicy is served with preview documents so a document
// opened outside the iframe gets the same sandbox.
const ContentSecurityPolicy = "sandbox " + SandboxAttr

// MountID is the element the fallback shell provides for the application
const MountID = "root"

const shell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Preview</title></head>
<body><div id="` + MountID + `"></div></body>
</html>`

// guard wraps the artifact. Uncaught errors, including asynchronous ones,
// reach the window listener; synchronous failures are caught, shown in
// place and posted once.
const guard = `window.addEventListener('error', function (event) {
  var err = event.error;
  window.parent.postMessage({ type: '` + MessageTypeError + `', message: err && err.stack ? String(err.stack) : String(event.message) }, '*');
});
try {
%s
} catch (err) {
  var message = err && err.stack ? String(err.stack) : String(err);
  var pre = document.createElement('pre');
  pre.setAttribute('style', 'color: red;');
  pre.textContent = message;
  document.body.appendChild(pre);
  window.parent.postMessage({ type: '` + MessageTypeError + `', message: message }, '*');
}`

// DocumentOptions lists what the artifact needs next to it
type DocumentOptions struct {
	ScriptURLs  []string // runtime library builds, in load order
	Stylesheets []string // CSS text imported by the project
}

// Document assembles the preview page. indexHTML is the project's
// index.html; when empty a shell with a mount node is used. Stylesheets go
// into the head; runtime scripts and the guarded artifact are appended to
// the body in that order.
func Document(artifact, indexHTML string, opts DocumentOptions) (string, error) {
	src := indexHTML
	if strings.TrimSpace(src) == "" {
		src = shell
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse index.html: %w", err)
	}

	head := doc.Find("head").First()
	for _, css := range opts.Stylesheets {
		head.AppendHtml("<style>" + escapeRaw(css, "style") + "</style>")
	}

	body := doc.Find("body").First()
	for _, u := range opts.ScriptURLs {
		body.AppendHtml(`<script src="` + html.EscapeString(u) + `"></script>`)
	}
	body.AppendHtml("<script>" + escapeRaw(fmt.Sprintf(guard, artifact), "script") + "</script>")

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render preview document: %w", err)
	}
	return out, nil
}

// ErrorDocument renders message as a plain-text diagnostic page
func ErrorDocument(message string) string {
	return "<html><body><pre style='color: red;'>" + html.EscapeString(message) + "</pre></body></html>"
}

// escapeRaw keeps raw text from closing its element early
func escapeRaw(text, tag string) string {
	closing := "</" + tag
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if i+len(closing) <= len(text) && strings.EqualFold(text[i:i+len(closing)], closing) {
			b.WriteString(`<\/`)
			i++
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
