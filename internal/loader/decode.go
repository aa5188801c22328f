package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/edu-content/internal/model"
)

// ManifestName is the per-directory specialty manifest.
const ManifestName = "catalog.toml"

// Manifest describes the specialty a content directory belongs to.
type Manifest struct {
	Specialty  string   `toml:"specialty"`
	Title      string   `toml:"title"`
	IDPrefixes []string `toml:"id_prefixes"`
}

// IsContentFile reports whether name is an entry file the loader decodes.
func IsContentFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// DecodeContent decodes one entry file. The format follows the extension.
// Unknown keys are rejected so typos in field names surface as load failures.
func DecodeContent(name string, data []byte) (*model.EducationalContent, error) {
	var content model.EducationalContent

	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&content); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("file is empty")
			}
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&content); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("file is empty")
			}
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported content file extension %q", path.Ext(name))
	}

	return &content, nil
}

// DecodeManifest decodes a catalog.toml manifest.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if strings.TrimSpace(m.Specialty) == "" {
		return Manifest{}, errors.New("decode manifest: specialty is required")
	}
	return m, nil
}
