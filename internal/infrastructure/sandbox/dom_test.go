package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorXPath(t *testing.T) {
	tests := []struct {
		selector string
		ok       bool
	}{
		{"#root", true},
		{".card", true},
		{"div", true},
		{"#", false},
		{"div > p", false},
		{"a[href]", false},
		{"#x'y", false},
	}
	for _, tt := range tests {
		_, ok := selectorXPath(tt.selector)
		assert.Equal(t, tt.ok, ok, tt.selector)
	}
}

func TestDOMQueries(t *testing.T) {
	dom, err := ParseDOM(`<html><body><div id="root"><p class="a b">one</p><p class="ab">two</p></div></body></html>`)
	require.NoError(t, err)

	assert.NotNil(t, dom.ByID("root"))
	assert.Nil(t, dom.ByID("missing"))
	assert.Len(t, dom.Query("p"), 2)
	assert.Len(t, dom.Query(".b"), 1, "class match is token based")
	assert.Equal(t, "onetwo", dom.Text("#root"))
	assert.Empty(t, dom.Query("div p"))
}

func TestDOMMutations(t *testing.T) {
	dom, err := ParseDOM(`<html><body><div id="root">old</div></body></html>`)
	require.NoError(t, err)
	root := dom.ByID("root")

	require.NoError(t, dom.SetInnerHTML(root, `<span>new</span>`))
	assert.Equal(t, `<span>new</span>`, dom.InnerHTML(root))

	dom.SetText(root, "<not markup>")
	assert.Equal(t, "&lt;not markup&gt;", dom.InnerHTML(root))

	dom.SetAttr(root, "data-run", "1")
	v, ok := dom.Attr(root, "data-run")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	dom.RemoveAttr(root, "data-run")
	_, ok = dom.Attr(root, "data-run")
	assert.False(t, ok)
}
