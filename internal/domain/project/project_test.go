package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "index.jsx", want: "index.jsx"},
		{in: "./App.jsx", want: "App.jsx"},
		{in: "/components/Button.jsx", want: "components/Button.jsx"},
		{in: "components\\Icon.jsx", want: "components/Icon.jsx"},
		{in: "a/./b/../c.js", want: "a/c.js"},
		{in: "", wantErr: ErrEmptyPath},
		{in: "./", wantErr: ErrEmptyPath},
		{in: "../secret", wantErr: ErrEscapesRoot},
		{in: "a/../../b", wantErr: ErrEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	files := map[string]string{"index.jsx": "a"}
	snap, err := NewSnapshot(files)
	require.NoError(t, err)

	files["index.jsx"] = "mutated"
	files["new.jsx"] = "b"

	content, ok := snap.Get("index.jsx")
	assert.True(t, ok)
	assert.Equal(t, "a", content)
	assert.False(t, snap.Has("new.jsx"))

	out := snap.Files()
	out["index.jsx"] = "mutated"
	content, _ = snap.Get("index.jsx")
	assert.Equal(t, "a", content)
}

func TestSnapshotRejectsCollidingPaths(t *testing.T) {
	_, err := NewSnapshot(map[string]string{"App.jsx": "a", "./App.jsx": "b"})
	assert.Error(t, err)
}

func TestEntry(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"conventional entry", map[string]string{"index.jsx": "", "a.jsx": ""}, "index.jsx"},
		{"first script", map[string]string{"package.json": "{}", "main.js": "", "b.jsx": ""}, "b.jsx"},
		{"no scripts", map[string]string{"style.css": "", "data.json": "{}"}, "data.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := NewSnapshot(tt.files)
			require.NoError(t, err)
			entry, err := snap.Entry()
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry)
		})
	}

	empty, err := NewSnapshot(nil)
	require.NoError(t, err)
	_, err = empty.Entry()
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		declared []string
	}{
		{"missing", "", []string{}},
		{"empty object", "{}", []string{}},
		{"malformed", "{not json", []string{}},
		{"array", "[1,2]", []string{}},
		{"dependencies not an object", `{"dependencies": ["lodash"]}`, []string{}},
		{"declared", `{"name":"p","dependencies":{"lodash":"^4","@emotion/react":"^11"}}`, []string{"@emotion/react", "lodash"}},
		{"dev deps ignored", `{"devDependencies":{"vitest":"1"}}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseManifest(tt.content)
			require.NotNil(t, m)
			assert.Equal(t, tt.declared, m.Declared())
		})
	}

	m := ParseManifest(`{"name":"react-playground","version":"1.0.0","dependencies":{"react":"^18.0.0"}}`)
	assert.Equal(t, "react-playground", m.Name)
	assert.True(t, m.Declares("react"))
	assert.False(t, m.Declares("lodash"))
}

func TestStarterProjectIsConsistent(t *testing.T) {
	snap, err := NewSnapshot(Starter())
	require.NoError(t, err)

	entry, err := snap.Entry()
	require.NoError(t, err)
	assert.Equal(t, EntryPath, entry)
	_, ok := snap.IndexHTML()
	assert.True(t, ok)
	assert.True(t, snap.Manifest().Declares("react-dom"))
}

func TestFromBundles(t *testing.T) {
	yamlData := []byte("files:\n  index.jsx: |\n    import App from './App'\n  App.jsx: export default () => 'hi'\n")
	snap, err := FromYAML(yamlData)
	require.NoError(t, err)
	assert.Equal(t, []string{"App.jsx", "index.jsx"}, snap.Paths())

	tomlData := []byte("[files]\n\"index.jsx\" = \"console.log(1)\"\n\"package.json\" = \"{}\"\n")
	snap, err = FromTOML(tomlData)
	require.NoError(t, err)
	content, _ := snap.Get("index.jsx")
	assert.Equal(t, "console.log(1)", content)

	snap, err = FromJSON([]byte(`{"files":{"./index.jsx":"x"}}`))
	require.NoError(t, err)
	assert.True(t, snap.Has("index.jsx"))

	_, err = FromJSON([]byte(`{"files":{}}`))
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestFromDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel string, data []byte) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}

	write("index.jsx", []byte("import App from './components/App'"))
	write("components/App.jsx", []byte("export default () => 'hi'"))
	write("package.json", []byte("{}"))
	write("node_modules/lodash/index.js", []byte("module.exports = {}"))
	write("logo.png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d})

	snap, err := FromDir(context.Background(), root, DefaultIgnore)
	require.NoError(t, err)
	assert.Equal(t, []string{"components/App.jsx", "index.jsx", "package.json"}, snap.Paths())

	loaded, err := Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, snap.Paths(), loaded.Paths())
}

func TestFromDirRejectsNonUTF8(t *testing.T) {
	root := t.TempDir()
	latin1 := []byte("// caf\xe9 cr\xe8me br\xfbl\xe9e, na\xefve r\xe9sum\xe9 \xe0 la fa\xe7on fran\xe7aise\nexport default 1\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.js"), latin1, 0o644))

	_, err := FromDir(context.Background(), root, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not UTF-8")
}

func TestLoadRejectsUnknownBundle(t *testing.T) {
	p := filepath.Join(t.TempDir(), "project.ini")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	_, err := Load(context.Background(), p)
	assert.Error(t, err)
}
