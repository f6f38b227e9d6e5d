package keymap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Document is the on-disk form of a Table. Codes are evdev names; "" or
// "-" stands for an absent slot.
type Document struct {
	Layers int      `json:"layers" yaml:"layers" toml:"layers"`
	Size   int      `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
	Aux    AuxDoc   `json:"aux" yaml:"aux" toml:"aux"`
	Select []int    `json:"select" yaml:"select" toml:"select"`
	Keys   []KeyDoc `json:"keys" yaml:"keys" toml:"keys"`
}

type AuxDoc struct {
	Bit   int      `json:"bit" yaml:"bit" toml:"bit"`
	Codes []string `json:"codes" yaml:"codes" toml:"codes"`
}

type KeyDoc struct {
	Index int      `json:"index" yaml:"index" toml:"index"`
	Label string   `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Codes []string `json:"codes,omitempty" yaml:"codes,omitempty" toml:"codes,omitempty"`
}

// FormatFromPath picks json, yaml or toml from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unsupported keymap file extension %q", filepath.Ext(path))
	}
}

// Load reads and validates a keymap file.
func Load(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keymap: %w", err)
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a keymap document in the given format.
func Parse(data []byte, format string) (*Table, error) {
	var doc Document
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &doc)
	case "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode keymap: %w", err)
	}
	return doc.Table()
}

// Table converts the document into a validated Table.
func (d *Document) Table() (*Table, error) {
	if d.Size < 0 || d.Size > ScanBits {
		return nil, fmt.Errorf("size %d out of range 0..%d", d.Size, ScanBits)
	}
	size := d.Size
	seen := make(map[int]bool, len(d.Keys))
	for _, k := range d.Keys {
		if k.Index < 0 || k.Index >= ScanBits {
			return nil, fmt.Errorf("key %q: index %d out of range 0..%d", k.Label, k.Index, ScanBits-1)
		}
		if seen[k.Index] {
			return nil, fmt.Errorf("key %d defined twice", k.Index)
		}
		seen[k.Index] = true
		size = max(size, k.Index+1)
	}

	t := &Table{
		Layers:  d.Layers,
		Select:  d.Select,
		Aux:     Aux{Bit: d.Aux.Bit},
		Entries: make([]Entry, size),
	}
	for i := range t.Entries {
		t.Entries[i].Codes = make([]Code, max(d.Layers, 0))
	}
	for _, name := range d.Aux.Codes {
		c, err := ParseCode(name)
		if err != nil {
			return nil, fmt.Errorf("aux: %w", err)
		}
		if code, ok := c.Get(); ok {
			t.Aux.Codes = append(t.Aux.Codes, code)
		}
	}
	for _, k := range d.Keys {
		if len(k.Codes) > d.Layers {
			return nil, fmt.Errorf("key %d (%s): %d codes for %d layers", k.Index, k.Label, len(k.Codes), d.Layers)
		}
		e := &t.Entries[k.Index]
		e.Label = k.Label
		for layer, name := range k.Codes {
			c, err := ParseCode(name)
			if err != nil {
				return nil, fmt.Errorf("key %d (%s): %w", k.Index, k.Label, err)
			}
			e.Codes[layer] = c
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDocument builds the on-disk form of t. Entries without a label or any
// present code are left out.
func NewDocument(t *Table) Document {
	doc := Document{
		Layers: t.Layers,
		Size:   t.Size(),
		Select: t.Select,
		Aux:    AuxDoc{Bit: t.Aux.Bit},
	}
	for _, c := range t.Aux.Codes {
		doc.Aux.Codes = append(doc.Aux.Codes, CodeName(c))
	}
	for i, e := range t.Entries {
		k := KeyDoc{Index: i, Label: e.Label}
		used := false
		for _, c := range e.Codes {
			used = used || c.Present()
			k.Codes = append(k.Codes, c.String())
		}
		if !used {
			k.Codes = nil
			if k.Label == "" {
				continue
			}
		}
		doc.Keys = append(doc.Keys, k)
	}
	return doc
}

// Marshal renders t in the given format.
func Marshal(t *Table, format string) ([]byte, error) {
	doc := NewDocument(t)
	switch format {
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml":
		return yaml.Marshal(doc)
	case "toml":
		return toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", format)
	}
}
