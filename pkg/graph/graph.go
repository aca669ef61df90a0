package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Serialization API
// =============================================================================

// MarshalMindMap converts a mind map to indented JSON bytes.
func MarshalMindMap(m *MindMap) ([]byte, error) {
	return marshal(m)
}

// MarshalLogicDiagram converts a logic diagram to indented JSON bytes.
func MarshalLogicDiagram(d *LogicDiagram) ([]byte, error) {
	return marshal(d)
}

// WriteMindMapFile writes a mind map to a JSON file.
// The file is created with 0644 permissions.
func WriteMindMapFile(m *MindMap, path string) error {
	return writeFile(m, path)
}

// WriteLogicDiagramFile writes a logic diagram to a JSON file.
func WriteLogicDiagramFile(d *LogicDiagram, path string) error {
	return writeFile(d, path)
}

// ReadMindMap decodes and validates a mind map from r.
// The result is normalized to [MaxDepth].
func ReadMindMap(r io.Reader) (*MindMap, error) {
	var m MindMap
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	out, _ := m.Normalize()
	return out, nil
}

// ReadMindMapFile reads a JSON file and returns the decoded mind map.
func ReadMindMapFile(path string) (*MindMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadMindMap(f)
}

// ReadLogicDiagram decodes a logic diagram from r and sanitizes it.
func ReadLogicDiagram(r io.Reader) (*LogicDiagram, error) {
	var d LogicDiagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out, _ := d.Sanitize()
	return out, nil
}

// ReadLogicDiagramFile reads a JSON file and returns the decoded diagram.
func ReadLogicDiagramFile(path string) (*LogicDiagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLogicDiagram(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(v, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return encode(v, f)
}

func encode(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
