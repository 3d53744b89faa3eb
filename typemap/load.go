package typemap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var reservedKeys = map[string]bool{
	"name":         true,
	"from_type":    true,
	"to_type":      true,
	"default_type": true,
}

// Load reads a map file. The file holds a top-level "maps" array whose
// entries carry name, from_type, to_type and default_type; every other key
// of an entry is a native to target association. The format is chosen by
// extension: .toml, .yaml or .yml.
func Load(path string) ([]*TypeMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}

	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported map file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing map file %s: %w", path, err)
	}

	return decode(doc)
}

func decode(doc map[string]any) ([]*TypeMap, error) {
	raw, ok := doc["maps"]
	if !ok {
		return nil, fmt.Errorf("map file has no maps array")
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("maps must be an array, got %T", raw)
	}

	maps := make([]*TypeMap, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("maps[%d]: expected a table, got %T", i, item)
		}

		var header [4]string
		for j, key := range []string{"name", "from_type", "to_type", "default_type"} {
			v, ok := entry[key].(string)
			if !ok {
				return nil, fmt.Errorf("maps[%d]: missing or non-string %s", i, key)
			}
			header[j] = v
		}

		tm := New(header[0], header[1], header[2], header[3])
		for key, value := range entry {
			if reservedKeys[key] {
				continue
			}
			target, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("maps[%d] (%s): value for %s must be a string, got %T", i, tm.Name, key, value)
			}
			tm.Set(key, target)
		}
		maps = append(maps, tm)
	}
	return maps, nil
}
