package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// DuplicateStrictness controls duplicate key handling during decoding.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Key     string
	Message string
}

// Options controls enforcement while decoding.
type Options struct {
	OnDuplicate DuplicateStrictness
	// MaxDepth limits container nesting; 0 disables the check.
	MaxDepth int
}

// DepthError reports a container nested deeper than Options.MaxDepth.
type DepthError struct {
	Path  string
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("max depth %d exceeded at %q", e.Limit, e.Path)
}

// Decode builds a JSON value from data token by token, recording duplicate
// keys with their JSON Pointer. As with the standard decoder the last
// duplicate wins. Numbers decode to float64.
func Decode(data []byte, opt Options) (any, []SimpleIssue, error) {
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, nil, err
	}
	d := &decoder{dec: json.NewDecoder(bytes.NewReader(data)), opt: opt}
	tok, err := d.next()
	if err != nil {
		return nil, nil, err
	}
	v, err := d.value(tok, "", 0)
	if err != nil {
		return nil, d.issues, err
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("invalid character after top-level value")
		}
		return nil, d.issues, err
	}
	return v, d.issues, nil
}

type decoder struct {
	dec    *json.Decoder
	opt    Options
	issues []SimpleIssue
}

func (d *decoder) next() (json.Token, error) {
	tok, err := d.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d *decoder) value(tok json.Token, path string, depth int) (any, error) {
	if delim, ok := tok.(json.Delim); ok {
		if delim != '{' && delim != '[' {
			return nil, fmt.Errorf("unexpected %q at %q", rune(delim), path)
		}
		if d.opt.MaxDepth > 0 && depth+1 > d.opt.MaxDepth {
			return nil, &DepthError{Path: path, Limit: d.opt.MaxDepth}
		}
		if delim == '{' {
			return d.object(path, depth+1)
		}
		return d.array(path, depth+1)
	}
	if n, ok := tok.(json.Number); ok {
		return n.Float64()
	}
	return tok, nil
}

func (d *decoder) object(path string, depth int) (any, error) {
	out := make(map[string]any)
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return out, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key at %q", path)
		}
		p := joinJSONPointer(path, key)
		if _, dup := out[key]; dup && d.opt.OnDuplicate != DupIgnore {
			d.issues = append(d.issues, SimpleIssue{
				Code:    "duplicate_key",
				Path:    p,
				Key:     key,
				Message: "key '" + key + "' duplicated",
			})
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, p, depth)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
}

func (d *decoder) array(path string, depth int) (any, error) {
	out := []any{}
	for i := 0; ; i++ {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return out, nil
		}
		v, err := d.value(tok, path+"/"+strconv.Itoa(i), depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
