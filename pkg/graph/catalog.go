package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog maps machine ids to descriptions and remembers insertion order.
// The zero value is an empty catalog ready to use.
type Catalog struct {
	ids    []string
	graphs map[string]Description
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{graphs: make(map[string]Description)}
}

// Set adds or replaces the description for id. Replacing keeps the
// original position.
func (c *Catalog) Set(id string, d Description) {
	if c.graphs == nil {
		c.graphs = make(map[string]Description)
	}
	if _, ok := c.graphs[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.graphs[id] = d
}

// Get returns the description for id.
func (c *Catalog) Get(id string) (Description, bool) {
	if c == nil {
		return Description{}, false
	}
	d, ok := c.graphs[id]
	return d, ok
}

// IDs returns machine ids in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ids...)
}

// Len returns the number of machines.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// MarshalJSON encodes the catalog as an object with keys in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.graphs[id])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
// Duplicate keys keep the first position and the last value.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog: expected object, got %v", tok)
	}

	*c = Catalog{graphs: make(map[string]Description)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: unexpected token %v", tok)
		}
		var d Description
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("catalog %s: %w", id, err)
		}
		c.Set(id, d)
	}
	_, err = dec.Token()
	return err
}
