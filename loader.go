package lottieschema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/lottieschema/jsonschema"
)

//go:embed schema/lottie.schema.json
var bundledSchema []byte

// BundledSchemaJSON returns the raw bytes of the bundled Lottie schema.
func BundledSchemaJSON() []byte { return bytes.Clone(bundledSchema) }

// DefaultSchema parses the bundled Lottie schema.
func DefaultSchema() (*jsonschema.Schema, error) {
	return LoadSchema(bundledSchema)
}

// LoadSchema parses a JSON schema document.
func LoadSchema(data []byte) (*jsonschema.Schema, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("lottieschema: parse schema: %w", err)
	}
	return jsonschema.FromMap(v)
}

// LoadSchemaYAML parses a YAML schema document.
func LoadSchemaYAML(data []byte) (*jsonschema.Schema, error) {
	m, err := decodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("lottieschema: parse schema: %w", err)
	}
	return jsonschema.FromMap(m)
}

// LoadSchemaDir assembles a schema split across files: rootFile (relative to
// dir) holds the top-level document, and every "<category>/<name>.json" or
// ".yaml" file under dir becomes $defs/<category>/<name>, with its own
// $schema dropped. Existing $defs of the root file are replaced.
func LoadSchemaDir(fsys fs.FS, dir, rootFile string) (*jsonschema.Schema, error) {
	rootPath := path.Join(dir, rootFile)
	root, err := readSchemaFile(fsys, rootPath)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("lottieschema: %w", err)
	}
	defs := map[string]any{}
	for _, cat := range entries {
		if !cat.IsDir() {
			continue
		}
		files, err := fs.ReadDir(fsys, path.Join(dir, cat.Name()))
		if err != nil {
			return nil, fmt.Errorf("lottieschema: %w", err)
		}
		group := map[string]any{}
		for _, f := range files {
			p := path.Join(dir, cat.Name(), f.Name())
			ext := path.Ext(f.Name())
			if f.IsDir() || p == rootPath || !isSchemaExt(ext) {
				continue
			}
			m, err := readSchemaFile(fsys, p)
			if err != nil {
				return nil, err
			}
			delete(m, "$schema")
			group[strings.TrimSuffix(f.Name(), ext)] = m
		}
		defs[cat.Name()] = group
	}
	root["$defs"] = defs
	return jsonschema.FromMap(root)
}

func isSchemaExt(ext string) bool {
	switch ext {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func readSchemaFile(fsys fs.FS, p string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("lottieschema: %w", err)
	}
	var v any
	if path.Ext(p) == ".json" {
		err = json.Unmarshal(data, &v)
	} else {
		v, err = decodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("lottieschema: %s: %w", p, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("lottieschema: %s: schema file must hold an object", p)
	}
	return m, nil
}

// LoadDialectYAML reads a Dialect. Fields absent from data keep their
// DefaultDialect values.
func LoadDialectYAML(data []byte) (Dialect, error) {
	d := DefaultDialect()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return Dialect{}, fmt.Errorf("lottieschema: parse dialect: %w", err)
	}
	return d, nil
}

func decodeYAML(data []byte) (any, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return jsonschema.Normalize(yamlNormalizeValue(node)), nil
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
