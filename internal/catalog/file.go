package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"productview/catalog/internal/domain"

	"gopkg.in/yaml.v3"
)

// catalogFile is the wrapped form of a catalog file. Bare arrays are accepted too.
type catalogFile struct {
	Products []domain.Product `json:"products" yaml:"products"`
}

// DecodeFunc decodes a catalog file body.
type DecodeFunc func(data []byte) ([]domain.Product, error)

// FileOption configures a FileLoader.
type FileOption func(*FileLoader)

// WithDecoder registers a decoder for a file extension such as ".html".
func WithDecoder(ext string, decode DecodeFunc) FileOption {
	return func(l *FileLoader) {
		l.decoders[strings.ToLower(ext)] = decode
	}
}

// FileLoader reads a catalog file, choosing the decoder by extension. JSON and
// YAML are always supported.
type FileLoader struct {
	Path     string
	decoders map[string]DecodeFunc
}

// NewFileLoader creates a loader for path.
func NewFileLoader(path string, opts ...FileOption) *FileLoader {
	decoders := map[string]DecodeFunc{
		"":      decodeJSON,
		".json": decodeJSON,
		".yaml": decodeYAML,
		".yml":  decodeYAML,
	}

	l := &FileLoader{Path: path, decoders: decoders}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and decodes the file.
func (l *FileLoader) Load(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(l.Path))
	decode, ok := l.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported catalog file extension %q", ext)
	}

	return decode(data)
}

func decodeJSON(data []byte) ([]domain.Product, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var products []domain.Product
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
		return products, nil
	}

	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog json: %w", err)
	}
	return f.Products, nil
}

func decodeYAML(data []byte) ([]domain.Product, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return []domain.Product{}, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var products []domain.Product
		if err := node.Content[0].Decode(&products); err != nil {
			return nil, fmt.Errorf("failed to decode catalog yaml: %w", err)
		}
		return products, nil
	}

	var f catalogFile
	if err := node.Content[0].Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog yaml: %w", err)
	}
	return f.Products, nil
}
