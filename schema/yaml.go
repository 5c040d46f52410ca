package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the document layout of a schema definition file:
//
//	tables:
//	  - name: member
//	    primary_key: id
//	    columns: [id, username, age, team_id]
//	    rels:
//	      - name: team
//	        kind: m2o
//	        table: team
//	        column: team_id
type file struct {
	Tables []*Table `yaml:"tables"`
}

// Load reads a YAML schema definition and returns a populated
// registry.
func Load(r io.Reader) (*Registry, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	reg := NewRegistry()
	if err := reg.Add(f.Tables...); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFile reads a YAML schema definition from the given path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	defer f.Close()
	return Load(f)
}
