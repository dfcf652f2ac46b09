package bundle

import (
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Metafile mirrors the engine's metafile JSON
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one module that took part in the build
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is an import edge
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one emitted file
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is an input's share of an output
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// Summary is the build analysis returned to clients
type Summary struct {
	OutputBytes int            `json:"output_bytes"`
	Inputs      []InputSummary `json:"inputs"`
	Remote      []string       `json:"remote,omitempty"`
	Runtime     []string       `json:"runtime,omitempty"`
	External    []string       `json:"external,omitempty"`
}

// InputSummary describes one input module
type InputSummary struct {
	Namespace     string `json:"namespace"`
	Path          string `json:"path"`
	Bytes         int    `json:"bytes"`
	BytesInOutput int    `json:"bytes_in_output"`
	Imports       int    `json:"imports"`
}

// ParseMetafile decodes the engine metafile
func ParseMetafile(raw string) (*Metafile, error) {
	var m Metafile
	if err := sonic.UnmarshalString(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Summarize condenses a metafile into per-input sizes and the remote and
// runtime modules the bundle pulled in. Inputs are sorted by path.
func Summarize(m *Metafile) *Summary {
	s := &Summary{}
	contrib := map[string]int{}
	for _, out := range m.Outputs {
		s.OutputBytes += out.Bytes
		for in, c := range out.Inputs {
			contrib[in] += c.BytesInOutput
		}
	}

	external := map[string]struct{}{}
	for key, in := range m.Inputs {
		ns, p := splitInput(key)
		s.Inputs = append(s.Inputs, InputSummary{
			Namespace:     ns,
			Path:          p,
			Bytes:         in.Bytes,
			BytesInOutput: contrib[key],
			Imports:       len(in.Imports),
		})
		switch ns {
		case "remote":
			s.Remote = append(s.Remote, p)
		case "runtime":
			s.Runtime = append(s.Runtime, p)
		}
		for _, imp := range in.Imports {
			if imp.External {
				external[imp.Path] = struct{}{}
			}
		}
	}
	for p := range external {
		s.External = append(s.External, p)
	}

	sort.Slice(s.Inputs, func(i, j int) bool {
		if s.Inputs[i].Namespace != s.Inputs[j].Namespace {
			return s.Inputs[i].Namespace < s.Inputs[j].Namespace
		}
		return s.Inputs[i].Path < s.Inputs[j].Path
	})
	sort.Strings(s.Remote)
	sort.Strings(s.Runtime)
	sort.Strings(s.External)
	return s
}

// splitInput splits "namespace:path". Remote paths contain "://" so only
// the first colon separates.
func splitInput(key string) (string, string) {
	ns, p, ok := strings.Cut(key, ":")
	if !ok || strings.HasPrefix(p, "//") {
		return "", key
	}
	return ns, p
}
