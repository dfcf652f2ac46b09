package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DOM is a mutable HTML document shared between the host and one run
type DOM struct {
	mu  sync.RWMutex
	doc *html.Node
}

// ParseDOM parses an HTML document
func ParseDOM(src string) (*DOM, error) {
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &DOM{doc: doc}, nil
}

// Root returns the document node
func (d *DOM) Root() *html.Node {
	return d.doc
}

// Body returns the body element
func (d *DOM) Body() *html.Node {
	return htmlquery.FindOne(d.doc, "//body")
}

// Head returns the head element
func (d *DOM) Head() *html.Node {
	return htmlquery.FindOne(d.doc, "//head")
}

// ByID returns the element with id, or nil
func (d *DOM) ByID(id string) *html.Node {
	nodes := d.Query("#" + id)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Query returns elements matching a simple selector: "#id", ".class" or a
// tag name. Anything else matches nothing.
func (d *DOM) Query(selector string) []*html.Node {
	expr, ok := selectorXPath(selector)
	if !ok {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	nodes, err := htmlquery.QueryAll(d.doc, expr)
	if err != nil {
		return nil
	}
	return nodes
}

// Text returns the text content of the first element matching selector
func (d *DOM) Text(selector string) string {
	nodes := d.Query(selector)
	if len(nodes) == 0 {
		return ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.InnerText(nodes[0])
}

// Render serializes the whole document
func (d *DOM) Render() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.OutputHTML(d.doc, true)
}

// InnerHTML serializes n's children
func (d *DOM) InnerHTML(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.OutputHTML(n, false)
}

// SetInnerHTML replaces n's children with parsed markup
func (d *DOM) SetInnerHTML(n *html.Node, markup string) error {
	host := n
	if n.Type != html.ElementNode {
		host = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), host)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// SetText replaces n's children with one text node
func (d *DOM) SetText(n *html.Node, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	removeChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// Append moves child under parent
func (d *DOM) Append(parent, child *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// Remove detaches child from parent if it is a child of it
func (d *DOM) Remove(parent, child *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if child.Parent != parent {
		return false
	}
	parent.RemoveChild(child)
	return true
}

// Attr returns an attribute value
func (d *DOM) Attr(n *html.Node, name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute value
func (d *DOM) SetAttr(n *html.Node, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute
func (d *DOM) RemoveAttr(n *html.Node, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

// InnerText returns n's text content
func (d *DOM) InnerText(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.InnerText(n)
}

// NewElement creates a detached element
func NewElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// NewText creates a detached text node
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func selectorXPath(selector string) (string, bool) {
	s := strings.TrimSpace(selector)
	if s == "" || strings.ContainsAny(s, `'" []>+~:,`) {
		return "", false
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return fmt.Sprintf("//*[@id='%s']", s[1:]), len(s) > 1
	case strings.HasPrefix(s, "."):
		return fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", s[1:]), len(s) > 1
	default:
		return "//" + strings.ToLower(s), true
	}
}
