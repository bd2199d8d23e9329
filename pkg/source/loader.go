// Package source loads content records from YAML or JSON files. It stands in
// for the host content system when records are exported to disk.
//
// A file holds either one record or a list of records:
//
//	- id: 0de95ae4-41ab-4d01-9eb0-67441b7c2450
//	  path: /sitecore/content/home
//	  name: home
//	  language: en
//	  templateId: "{76036F5E-CBCE-46D1-AF0A-4143F9B557AA}"
//	  fields:
//	    - name: Title
//	      type: single-line text
//	      value: Welcome
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
)

// Loader reads records from a filesystem.
type Loader struct {
	Fs afero.Fs
}

// NewLoader returns a Loader on fs. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{Fs: fs}
}

// LoadFile reads the records in one file.
func (l *Loader) LoadFile(path string) ([]*record.Record, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %s: %w", path, err)
	}
	recs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record file %s: %w", path, err)
	}
	return recs, nil
}

// LoadDir reads every .yaml, .yml and .json file under root. Records are
// returned sorted by path, then language and version.
func (l *Loader) LoadDir(root string) ([]*record.Record, error) {
	var recs []*record.Record
	err := afero.Walk(l.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isRecordFile(path) {
			return nil
		}
		fileRecs, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		recs = append(recs, fileRecs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Language != b.Language {
			return a.Language < b.Language
		}
		return a.Version < b.Version
	})
	return recs, nil
}

// Load reads path, which may be a file or a directory.
func (l *Loader) Load(path string) ([]*record.Record, error) {
	info, err := l.Fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

// Decode parses one record or a list of records. JSON input is accepted as a
// subset of YAML.
func Decode(data []byte) ([]*record.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	content := &node
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		content = node.Content[0]
	}

	switch content.Kind {
	case yaml.SequenceNode:
		var recs []*record.Record
		if err := content.Decode(&recs); err != nil {
			return nil, err
		}
		return recs, nil
	case yaml.MappingNode:
		var rec record.Record
		if err := content.Decode(&rec); err != nil {
			return nil, err
		}
		return []*record.Record{&rec}, nil
	}
	return nil, fmt.Errorf("expected a record or a list of records")
}

func isRecordFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
