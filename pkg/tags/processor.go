// Package tags folds configured document keys into the _tags array.
package tags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp-forge/contentsearch/pkg/document"
	"github.com/hashicorp-forge/contentsearch/pkg/indexconfig"
)

// Processor applies tag rules in declaration order. It is safe for concurrent
// use.
type Processor struct {
	rules []indexconfig.TagRule
}

// NewProcessor returns a Processor for rules.
func NewProcessor(rules []indexconfig.TagRule) *Processor {
	p := &Processor{rules: make([]indexconfig.TagRule, len(rules))}
	copy(p.rules, rules)
	return p
}

// Rules returns the configured rules.
func (p *Processor) Rules() []indexconfig.TagRule {
	out := make([]indexconfig.TagRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Process returns a copy of doc in which every rule whose source key is
// present has been moved into _tags as prefix+value. Existing _tags entries
// are kept. Identical tags produced by different rules are not collapsed.
func (p *Processor) Process(doc document.Document) document.Document {
	if len(p.rules) == 0 {
		return doc
	}

	b := doc.Edit()
	changed := false
	for _, rule := range p.rules {
		v, ok := b.Get(rule.Source)
		if !ok {
			continue
		}
		b.Append(document.KeyTags, rule.Prefix+stringValue(v))
		if rule.Source != document.KeyTags {
			b.Delete(rule.Source)
		}
		changed = true
	}
	if !changed {
		return doc
	}
	return b.Freeze()
}

// stringValue renders a document value the way it appears in a tag.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, ",")
	}
	return fmt.Sprint(v)
}
