// Package persist writes query results to files and reads them back. The
// encoding is chosen from the file extension; a trailing ".lz4" compresses
// the encoded stream.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a path whose extension names no encoding.
var ErrUnknownFormat = errors.New("unknown file format")

// Encoding names a serialization.
type Encoding string

// Supported encodings. Gob and YAML keep infinite interval bounds as floats;
// JSON writes them as null.
const (
	EncodingJSON Encoding = "json"
	EncodingGob  Encoding = "gob"
	EncodingYAML Encoding = "yaml"
)

const compressedSuffix = ".lz4"

var encodingByExt = map[string]Encoding{
	".json": EncodingJSON,
	".gob":  EncodingGob,
	".yaml": EncodingYAML,
	".yml":  EncodingYAML,
}

// Format is the encoding and compression selected for a path.
type Format struct {
	Encoding   Encoding
	Compressed bool
}

// FormatFor picks the format from the extension of path: ".json", ".gob",
// ".yaml" or ".yml", optionally followed by ".lz4".
func FormatFor(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	trimmed := strings.TrimSuffix(name, compressedSuffix)

	enc, ok := encodingByExt[filepath.Ext(trimmed)]
	if !ok {
		return Format{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	return Format{Encoding: enc, Compressed: trimmed != name}, nil
}

func (f Format) String() string {
	if f.Compressed {
		return string(f.Encoding) + "+lz4"
	}

	return string(f.Encoding)
}

// Write encodes v to w. JSON and YAML are indented by two spaces.
func (f Format) Write(w io.Writer, v any) error {
	if !f.Compressed {
		return f.marshal(w, v)
	}

	zw := lz4.NewWriter(w)

	err := f.marshal(zw, v)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("flush lz4 frame: %w", err)
	}

	return nil
}

// Read decodes one value from r into v, which must be a pointer.
func (f Format) Read(r io.Reader, v any) error {
	if f.Compressed {
		r = lz4.NewReader(r)
	}

	var err error

	switch f.Encoding {
	case EncodingJSON:
		err = json.NewDecoder(r).Decode(v)
	case EncodingGob:
		err = gob.NewDecoder(r).Decode(v)
	case EncodingYAML:
		err = yaml.NewDecoder(r).Decode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f.Encoding)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", f, err)
	}

	return nil
}

func (f Format) marshal(w io.Writer, v any) error {
	var err error

	switch f.Encoding {
	case EncodingJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case EncodingGob:
		err = gob.NewEncoder(w).Encode(v)
	case EncodingYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err = enc.Encode(v)
		if err == nil {
			err = enc.Close()
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f.Encoding)
	}

	if err != nil {
		return fmt.Errorf("write %s: %w", f, err)
	}

	return nil
}

// SaveFile encodes v to path, replacing any existing file.
func SaveFile(path string, v any) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	err = format.Write(file, v)

	closeErr := file.Close()
	if err != nil {
		return err
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}

// LoadFile decodes the file at path into v, which must be a pointer.
func LoadFile(path string, v any) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return format.Read(file, v)
}
