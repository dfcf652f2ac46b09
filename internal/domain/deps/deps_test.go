package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/domain/project"
)

func build(t *testing.T, files map[string]string) *project.Snapshot {
	t.Helper()
	snap, err := project.NewSnapshot(files)
	require.NoError(t, err)
	return snap
}

func TestImports(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"default import", `import _ from 'lodash'`, []string{"lodash"}},
		{"named import", `import { debounce } from "lodash/debounce"`, []string{"lodash"}},
		{"scoped", `import styled from '@emotion/styled'`, []string{"@emotion/styled"}},
		{"side effect", `import 'normalize.css'`, []string{"normalize.css"}},
		{"relative ignored", `import App from './App'`, []string{}},
		{"parent ignored", `import x from '../x'`, []string{}},
		{"multiline named", "import {\n  a,\n  b\n} from 'pkg'", []string{"pkg"}},
		{"require not analysed", `const x = require('axios')`, []string{}},
		{"dynamic not analysed", `const m = await import('dayjs')`, []string{}},
		{"deduplicated", "import a from 'x'\nimport b from 'x/y'", []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Imports(tt.content))
		})
	}
}

func TestCheckMissingDependency(t *testing.T) {
	snap := build(t, map[string]string{
		"index.jsx":    `import _ from 'lodash'; console.log(_)`,
		"package.json": `{"dependencies":{}}`,
	})

	assert.Equal(t, []string{"lodash"}, Check(snap, snap.Manifest()))
}

func TestCheckDeclaredDependency(t *testing.T) {
	snap := build(t, map[string]string{
		"index.jsx":    `import _ from 'lodash'; console.log(_)`,
		"package.json": `{"dependencies":{"lodash":"^4.17.21"}}`,
	})

	assert.Empty(t, Check(snap, snap.Manifest()))
}

func TestCheckRuntimeLibrariesAreImplicit(t *testing.T) {
	snap := build(t, map[string]string{
		"index.jsx": `import React from 'react'
import { createRoot } from 'react-dom/client'
import { BrowserRouter } from 'react-router-dom'`,
	})

	assert.Empty(t, Check(snap, snap.Manifest()))
}

func TestCheckScansAllScriptsSorted(t *testing.T) {
	snap := build(t, map[string]string{
		"index.jsx":         `import App from './App'`,
		"App.jsx":           `import axios from 'axios'`,
		"lib/util.js":       `import dayjs from 'dayjs'`,
		"lib/worker.mjs":    `import { z } from 'zod'`,
		"styles.css":        `@import 'ignored-package';`,
		"notes.md":          `import x from 'not-code'`,
		"components/a.cjs":  `import '@scope/pkg/register'`,
		"package.json":      `{"dependencies":{"zod":"3"}}`,
		"components/b.json": `{"import": "import y from 'nope'"}`,
	})

	assert.Equal(t, []string{"@scope/pkg", "axios", "dayjs"}, Check(snap, snap.Manifest()))
}

func TestCheckMalformedManifestDeclaresNothing(t *testing.T) {
	snap := build(t, map[string]string{
		"index.jsx":    `import _ from 'lodash'`,
		"package.json": `{not json`,
	})

	assert.Equal(t, []string{"lodash"}, Check(snap, snap.Manifest()))
	assert.Equal(t, []string{"lodash"}, Check(snap, nil))
}
