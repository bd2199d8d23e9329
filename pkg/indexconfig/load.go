// Package indexconfig holds the parsed definition of a search index: the
// field type map, length and structural policies, computed fields, tag rules
// and crawler scope.
//
// Definitions are written in HCL:
//
//	index "products" {
//	  site             = "MySite"
//	  max_field_length = 4000
//
//	  crawler {
//	    database = "master"
//	    root     = "/sitecore/content/home"
//	  }
//
//	  field_type {
//	    name = "number"
//	    kind = "number"
//	  }
//	  numeric_readers = ["number"]
//
//	  computed_field "parents" {
//	    type = "parents"
//	  }
//
//	  tag {
//	    source = "_language"
//	  }
//	}
//
// Problems are reported by Validate at load time, before any document is
// built.
package indexconfig

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// File is the top level of a standalone index definition file.
type File struct {
	Indexes []*Index `hcl:"index,block"`
}

// LoadFile loads, defaults and validates the indexes defined in filename.
// computedTypes lists the registered computed field function names.
func LoadFile(filename string, computedTypes []string) ([]*Index, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	var f File
	if err := hclsimple.DecodeFile(filename, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return prepare(f.Indexes, computedTypes)
}

// Decode parses src as HCL. filename is used for diagnostics and must end in
// ".hcl".
func Decode(filename string, src []byte, computedTypes []string) ([]*Index, error) {
	var f File
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return prepare(f.Indexes, computedTypes)
}

// Prepare applies defaults to and validates indexes decoded elsewhere.
func Prepare(indexes []*Index, computedTypes []string) error {
	_, err := prepare(indexes, computedTypes)
	return err
}

func prepare(indexes []*Index, computedTypes []string) ([]*Index, error) {
	seen := make(map[string]bool, len(indexes))
	for _, idx := range indexes {
		if seen[idx.Name] {
			return nil, fmt.Errorf("duplicate index name: %s", idx.Name)
		}
		seen[idx.Name] = true

		idx.ApplyDefaults()
		if err := idx.Validate(computedTypes); err != nil {
			return nil, fmt.Errorf("index %q: %w", idx.Name, err)
		}
	}
	return indexes, nil
}
