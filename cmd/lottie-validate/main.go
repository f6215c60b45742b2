package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	lottieschema "github.com/reoring/lottieschema"
	"github.com/reoring/lottieschema/jsonschema"
	"github.com/reoring/lottieschema/schemacheck"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	schema     string
	schemaRoot string
	format     string
	lang       string
	docsURL    string
	dialect    string
	duplicates string
	maxDepth   int
	lint       bool
	verbose    bool
	files      []string
}

// report is the machine-readable output for one input file.
type report struct {
	File     string                `json:"file" yaml:"file"`
	Findings lottieschema.Findings `json:"findings" yaml:"findings"`
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "lottie-validate: validate Lottie animations\n\nUsage:\n  lottie-validate [flags] file...\n\nUse - to read from stdin.\n\nFlags:\n")
		fs.PrintDefaults()
	}
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("lottie-validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs)
	fs.StringVar(&cfg.schema, "schema", "", "schema file (.json, .yaml) or directory of split schema parts; default is the bundled schema")
	fs.StringVar(&cfg.schemaRoot, "schema-root", "root.json", "root file inside a -schema directory")
	fs.StringVar(&cfg.format, "format", "text", "output format: text, json or yaml")
	fs.StringVar(&cfg.lang, "lang", "en", "message language: en or ja")
	fs.StringVar(&cfg.docsURL, "docs-url", "", "base URL of documentation links")
	fs.StringVar(&cfg.dialect, "dialect", "", "YAML file overriding the schema vocabulary")
	fs.StringVar(&cfg.duplicates, "duplicates", "warn", "severity of duplicated keys: ignore, warn or error")
	fs.IntVar(&cfg.maxDepth, "max-depth", 512, "maximum nesting depth of a document, 0 disables")
	fs.BoolVar(&cfg.lint, "lint", false, "check the schema itself before validating")
	fs.BoolVar(&cfg.verbose, "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.files = fs.Args()
	switch cfg.format {
	case "text", "json", "yaml":
	default:
		return cfg, fmt.Errorf("unknown format %q", cfg.format)
	}
	if len(cfg.files) == 0 && !cfg.lint {
		fs.Usage()
		return cfg, errors.New("missing file to validate")
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
		return exitUsage
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := lottieschema.DefaultOptions()
	opts.DocsURL = cfg.docsURL
	opts.MaxDepth = cfg.maxDepth
	opts.Language = cfg.lang
	opts.Logger = log
	if err := opts.Duplicates.UnmarshalText([]byte(cfg.duplicates)); err != nil {
		fmt.Fprintf(stderr, "lottie-validate: -duplicates: %v\n", err)
		return exitUsage
	}
	if cfg.dialect != "" {
		b, err := os.ReadFile(cfg.dialect)
		if err != nil {
			fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
			return exitUsage
		}
		d, err := lottieschema.LoadDialectYAML(b)
		if err != nil {
			fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
			return exitUsage
		}
		opts.Dialect = &d
	}

	schema, raw, err := loadSchema(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
		return exitUsage
	}
	log.Debug("schema loaded", "source", schemaSource(cfg), "id", schema.ID)

	code := exitOK
	if cfg.lint && !lint(schema, raw, stderr, log) {
		code = exitFailed
	}
	if len(cfg.files) == 0 {
		return code
	}

	v, err := lottieschema.New(schema, opts)
	if err != nil {
		fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
		return exitUsage
	}

	reports := make([]report, 0, len(cfg.files))
	for _, name := range cfg.files {
		data, err := readInput(name, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
			return exitUsage
		}
		fs := v.Validate(data)
		log.Debug("validated", "file", name, "errors", len(fs.Errors()), "warnings", len(fs.Warnings()))
		if fs.HasErrors() {
			code = exitFailed
		}
		reports = append(reports, report{File: name, Findings: lottieschema.AppendFindings(fs)})
	}

	if err := write(stdout, cfg.format, reports); err != nil {
		fmt.Fprintf(stderr, "lottie-validate: %v\n", err)
		return exitUsage
	}
	return code
}

func schemaSource(cfg config) string {
	if cfg.schema == "" {
		return "bundled"
	}
	return cfg.schema
}

// loadSchema returns the schema and, when it came from a single document,
// its raw bytes.
func loadSchema(cfg config) (*jsonschema.Schema, []byte, error) {
	if cfg.schema == "" {
		s, err := lottieschema.DefaultSchema()
		return s, lottieschema.BundledSchemaJSON(), err
	}
	st, err := os.Stat(cfg.schema)
	if err != nil {
		return nil, nil, err
	}
	if st.IsDir() {
		s, err := lottieschema.LoadSchemaDir(os.DirFS(cfg.schema), ".", cfg.schemaRoot)
		return s, nil, err
	}
	b, err := os.ReadFile(cfg.schema)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(filepath.Ext(cfg.schema)) {
	case ".yaml", ".yml":
		s, err := lottieschema.LoadSchemaYAML(b)
		return s, nil, err
	}
	s, err := lottieschema.LoadSchema(b)
	return s, b, err
}

func lint(s *jsonschema.Schema, raw []byte, stderr io.Writer, log *slog.Logger) bool {
	ok := true
	for _, p := range schemacheck.Lint(s) {
		fmt.Fprintf(stderr, "schema: %s\n", p)
		ok = false
	}
	if raw == nil {
		log.Debug("draft 2020-12 compile skipped, schema was not read from a single JSON file")
		return ok
	}
	if err := schemacheck.Compile(raw); err != nil {
		fmt.Fprintf(stderr, "schema: %v\n", err)
		ok = false
	}
	return ok
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func write(w io.Writer, format string, reports []report) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(reports, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, r := range reports {
		if len(r.Findings) == 0 {
			fmt.Fprintf(w, "%s: ok\n", r.File)
			continue
		}
		for _, f := range r.Findings {
			fmt.Fprintf(w, "%s: %s %s: %s", r.File, f.Severity, displayPath(f.Path), f.Message)
			if f.Anchor != nil && f.Anchor.URL != "" {
				fmt.Fprintf(w, " (%s)", f.Anchor.URL)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
