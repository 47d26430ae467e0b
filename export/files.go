package export

import (
	"encoding/base64"
	"fmt"
	"maps"
	"strings"

	"github.com/albertocavalcante/go-startkit/compile"
)

// Decode returns the bytes a file holds on disk. Content carrying
// compile.BinaryPrefix is base64-decoded; anything else is returned as is.
func Decode(content string) ([]byte, error) {
	payload, ok := strings.CutPrefix(content, compile.BinaryPrefix)
	if !ok {
		return []byte(content), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode binary payload: %w", err)
	}
	return data, nil
}

// Encode escapes raw binary data with compile.BinaryPrefix.
func Encode(data []byte) string {
	return compile.BinaryPrefix + base64.StdEncoding.EncodeToString(data)
}

// Flat returns the project as a path to content map. Binary files that were
// detected by path rather than by prefix are escaped, so every binary entry
// carries compile.BinaryPrefix.
func Flat(p *compile.Project) map[string]string {
	out := maps.Clone(p.Files)
	if out == nil {
		out = make(map[string]string)
	}
	for _, path := range p.Binary {
		content := out[path]
		if !strings.HasPrefix(content, compile.BinaryPrefix) {
			out[path] = Encode([]byte(content))
		}
	}
	return out
}
