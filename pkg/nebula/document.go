package nebula

import (
	"bytes"
	"io"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	nerrors "nebula-nodeconf/pkg/errors"
)

// Document is a generic Nebula configuration tree as decoded from YAML:
// nested map[string]any and []any with scalar leaves.
type Document map[string]any

// Parse decodes a YAML document whose root must be a mapping.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nerrors.Wrap(err, nerrors.KindParse, "decode yaml")
	}
	if doc == nil {
		return nil, nerrors.New(nerrors.KindParse, "document is empty")
	}
	return doc, nil
}

// Marshal encodes the document as block-style YAML with two-space indent.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, nerrors.Wrap(err, nerrors.KindParse, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, nerrors.Wrap(err, nerrors.KindParse, "encode yaml")
	}
	return buf.Bytes(), nil
}

// CheckShape verifies that the sections derivation writes into have the
// expected container types. Absent sections are fine.
func CheckShape(doc Document) error {
	for _, key := range []string{"firewall", "lighthouse", "tun", "pki"} {
		if v, ok := doc[key]; ok && v != nil {
			if _, isMap := v.(map[string]any); !isMap {
				return nerrors.Errorf(nerrors.KindParse, "%s: expected a mapping, got %T", key, v)
			}
		}
	}
	if fw, ok := doc["firewall"].(map[string]any); ok {
		if v, ok := fw["inbound"]; ok && v != nil {
			if _, isSeq := v.([]any); !isSeq {
				return nerrors.Errorf(nerrors.KindParse, "firewall.inbound: expected a sequence, got %T", v)
			}
		}
	}
	return nil
}

// Load reads, decodes and shape-checks a template.
func Load(fs afero.Fs, path string) (Document, error) {
	if ok, err := afero.Exists(fs, path); err != nil {
		return nil, nerrors.Wrapf(err, nerrors.KindIO, "stat %s", path)
	} else if !ok {
		return nil, nerrors.Attr(nerrors.Errorf(nerrors.KindNotFound, "config file %s not found", path), "path", path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nerrors.Attr(nerrors.Wrapf(err, nerrors.KindIO, "read %s", path), "path", path)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, nerrors.Attr(nerrors.Wrapf(err, nerrors.KindParse, "parse %s", path), "path", path)
	}
	if err := CheckShape(doc); err != nil {
		return nil, nerrors.Attr(nerrors.Wrapf(err, nerrors.KindParse, "template %s", path), "path", path)
	}
	return doc, nil
}

// Write serializes doc and overwrites path. The rendered bytes are returned
// so callers can publish exactly what was written.
func Write(fs afero.Fs, path string, doc Document) ([]byte, error) {
	data, err := Marshal(doc)
	if err != nil {
		return nil, nerrors.Wrapf(err, nerrors.KindIO, "serialize %s", path)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return nil, nerrors.Attr(nerrors.Wrapf(err, nerrors.KindIO, "write %s", path), "path", path)
	}
	return data, nil
}

// Seed copies template to output when output does not exist yet. File mode is preserved.
func Seed(fs afero.Fs, template, output string) error {
	if ok, err := afero.Exists(fs, output); err != nil {
		return nerrors.Wrapf(err, nerrors.KindIO, "stat %s", output)
	} else if ok {
		return nil
	}
	info, err := fs.Stat(template)
	if err != nil {
		return nerrors.Wrapf(err, nerrors.KindIO, "stat %s", template)
	}
	src, err := fs.Open(template)
	if err != nil {
		return nerrors.Wrapf(err, nerrors.KindIO, "open %s", template)
	}
	defer src.Close()

	dst, err := fs.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return nerrors.Wrapf(err, nerrors.KindIO, "create %s", output)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return nerrors.Wrapf(err, nerrors.KindIO, "copy %s to %s", template, output)
	}
	if err := dst.Close(); err != nil {
		return nerrors.Wrapf(err, nerrors.KindIO, "close %s", output)
	}
	return nil
}
