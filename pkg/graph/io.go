package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadDescription decodes a single machine's description.
func ReadDescription(r io.Reader) (Description, error) {
	var d Description
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Description{}, fmt.Errorf("decode description: %w", err)
	}
	return d, nil
}

// ReadCatalog decodes a /graph-data document.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	c := NewCatalog()
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// ReadMachines decodes a /machines document.
func ReadMachines(r io.Reader) ([]MachineInfo, error) {
	var infos []MachineInfo
	if err := json.NewDecoder(r).Decode(&infos); err != nil {
		return nil, fmt.Errorf("decode machines: %w", err)
	}
	return infos, nil
}

// MarshalFlow converts a flow to indented JSON bytes.
func MarshalFlow(f Flow) ([]byte, error) {
	return json.MarshalIndent(normalizeFlow(f), "", "  ")
}

// WriteFlow writes a flow as indented JSON.
func WriteFlow(f Flow, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalizeFlow(f)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFlowFile writes a flow to a JSON file.
func WriteFlowFile(f Flow, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return WriteFlow(f, out)
}

// ReadFlow decodes a flow.
func ReadFlow(r io.Reader) (Flow, error) {
	var f Flow
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Flow{}, fmt.Errorf("decode: %w", err)
	}
	return f, nil
}

// ReadFlowFile reads a flow from a JSON file.
func ReadFlowFile(path string) (Flow, error) {
	in, err := os.Open(path)
	if err != nil {
		return Flow{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return ReadFlow(in)
}

// normalizeFlow makes empty collections encode as [] rather than null.
func normalizeFlow(f Flow) Flow {
	if f.Nodes == nil {
		f.Nodes = []FlowNode{}
	}
	if f.Edges == nil {
		f.Edges = []FlowEdge{}
	}
	return f
}
