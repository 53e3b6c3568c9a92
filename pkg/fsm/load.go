package fsm

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/fsmflow/pkg/errors"
)

// Format is a definition file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// fileDoc is the multi-machine file layout.
type fileDoc struct {
	Machines []Definition `json:"machines" yaml:"machines" toml:"machines"`
}

// LoadFile reads the definitions stored in path. Each definition is
// validated.
func LoadFile(path string) ([]Definition, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: unsupported definition file type", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definition file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// LoadDir loads every supported definition file in dir, ordered by file
// name. Subdirectories are ignored. Machine names must be unique across
// files.
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definition directory %s", dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatFor(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []Definition
	seen := make(map[string]string)
	for _, name := range names {
		defs, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if prev, dup := seen[d.Name]; dup {
				return nil, errors.New(errors.ErrCodeInvalidDefinition,
					"machine %q defined in both %s and %s", d.Name, prev, name)
			}
			seen[d.Name] = name
		}
		all = append(all, defs...)
	}
	return all, nil
}

// LoadPath loads a single file or a directory.
func LoadPath(path string) ([]Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definitions %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// Parse decodes definitions from data in the given format and validates
// them.
func Parse(data []byte, format Format) ([]Definition, error) {
	var (
		defs []Definition
		err  error
	)
	switch format {
	case FormatYAML:
		defs, err = parseYAML(data)
	case FormatTOML:
		defs, err = parseTOML(data)
	case FormatJSON:
		defs, err = parseJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func parseYAML(data []byte) ([]Definition, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse yaml")
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	switch {
	case doc.Kind == yaml.SequenceNode:
		var defs []Definition
		if err := doc.Decode(&defs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode yaml")
		}
		return defs, nil
	case doc.Kind == yaml.MappingNode && hasYAMLKey(doc, "machines"):
		var f fileDoc
		if err := doc.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode yaml")
		}
		return f.Machines, nil
	default:
		var d Definition
		if err := doc.Decode(&d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode yaml")
		}
		return []Definition{d}, nil
	}
}

func hasYAMLKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}

func parseTOML(data []byte) ([]Definition, error) {
	var f fileDoc
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse toml")
	}
	if md.IsDefined("machines") {
		return f.Machines, nil
	}

	var d Definition
	if _, err := toml.Decode(string(data), &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode toml")
	}
	return []Definition{d}, nil
}

func parseJSON(data []byte) ([]Definition, error) {
	schema, err := definitionSchema()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "definition schema")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "parse json")
	}
	if err := schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if stderrors.As(err, &verr) {
			v := violations(verr)
			return nil, errors.New(errors.ErrCodeInvalidDefinition, "schema: %s", strings.Join(v, "; "))
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "schema")
	}

	switch v := inst.(type) {
	case []any:
		var defs []Definition
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode json")
		}
		return defs, nil
	case map[string]any:
		if _, ok := v["machines"]; ok {
			var f fileDoc
			if err := json.Unmarshal(data, &f); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode json")
			}
			return f.Machines, nil
		}
	}
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "decode json")
	}
	return []Definition{d}, nil
}
