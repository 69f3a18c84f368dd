package timeline

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const lz4Suffix = ".lz4"

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema documents are validated against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Loader reads network documents.
type Loader struct {
	validate bool
	logger   *slog.Logger
	schema   *gojsonschema.Schema
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithValidation enables or disables schema validation. It is on by default.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.validate = enabled
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader compiles the embedded schema and returns a loader.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		validate: true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	l.schema = schema

	return l, nil
}

// DetectFormat derives the format and LZ4 framing from a file name such as
// "net.json", "net.yml" or "net.yaml.lz4".
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, lz4Suffix)
	name = strings.TrimSuffix(name, lz4Suffix)

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads and decodes the document at path.
func (l *Loader) LoadFile(path string) (*Document, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		r = lz4.NewReader(f)
	}

	doc, err := l.Load(r, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Debug("document loaded", "path", path, "format", string(format),
		"lz4", compressed, "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	return doc, nil
}

// Load decodes one document from r.
func (l *Loader) Load(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if l.validate {
		err = l.check(data, format)
		if err != nil {
			return nil, err
		}
	}

	doc := &Document{}

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s document: %w", format, err)
	}

	return doc, nil
}

// check validates the raw document against the schema.
func (l *Loader) check(data []byte, format Format) error {
	var generic any

	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&generic)
	case FormatYAML:
		err = yaml.Unmarshal(data, &generic)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return fmt.Errorf("decode %s document: %w", format, err)
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(generic))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(problems, "; "))
}
