package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Serializer defines how a store document is laid out on disk. A document is
// a single object whose only key is the collection name and whose value is
// the array of records.
type Serializer interface {
	// Ext is the file extension, including the dot.
	Ext() string
	// Decode reads the records of collection from data into out, which must
	// be a pointer to a slice. A blank document or a missing key decodes to
	// no records.
	Decode(data []byte, collection string, out any) error
	// Encode renders records as the document for collection.
	Encode(collection string, records any) ([]byte, error)
}

// SerializerFor returns the serializer registered for a format name.
func SerializerFor(format string) (Serializer, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONSerializer{}, nil
	case "yaml", "yml":
		return YAMLSerializer{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// JSONSerializer writes documents pretty-printed with two spaces and no
// trailing newline.
type JSONSerializer struct{}

func (JSONSerializer) Ext() string { return ".json" }

func (JSONSerializer) Decode(data []byte, collection string, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	raw, ok := doc[collection]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid %s array: %w", collection, err)
	}
	return nil
}

func (JSONSerializer) Encode(collection string, records any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{collection: records}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// YAMLSerializer writes documents as block YAML with two space indentation.
type YAMLSerializer struct{}

func (YAMLSerializer) Ext() string { return ".yaml" }

func (YAMLSerializer) Decode(data []byte, collection string, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	node, ok := doc[collection]
	if !ok || node.Tag == "!!null" {
		return nil
	}
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("invalid %s list: %w", collection, err)
	}
	return nil
}

func (YAMLSerializer) Encode(collection string, records any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{collection: records}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
