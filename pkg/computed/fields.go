package computed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
)

// CreatedField is read by SmallCreatedDate unless the "field" param is set.
const CreatedField = "__created"

// Sitecore stores dates in ISO 8601 basic format.
var sitecoreLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

// Parents returns ancestor IDs nearest-first.
//
// Params:
//   - max_depth: at most this many ancestors.
//   - stop_at_path: stop before the ancestor with this path.
func Parents(ctx context.Context, rec *record.Record, lookup record.AncestorLookup, params map[string]string) (any, error) {
	ancestors, err := ancestorsFor(ctx, rec, lookup, params)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ancestors))
	for _, a := range ancestors {
		ids = append(ids, a.ID.String())
	}
	return ids, nil
}

// ParentNames returns ancestor names nearest-first. It accepts the same
// params as Parents.
func ParentNames(ctx context.Context, rec *record.Record, lookup record.AncestorLookup, params map[string]string) (any, error) {
	ancestors, err := ancestorsFor(ctx, rec, lookup, params)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ancestors))
	for _, a := range ancestors {
		names = append(names, a.Name)
	}
	return names, nil
}

// Depth returns the number of ancestors.
func Depth(ctx context.Context, rec *record.Record, lookup record.AncestorLookup, params map[string]string) (any, error) {
	ancestors, err := ancestorsFor(ctx, rec, lookup, params)
	if err != nil {
		return nil, err
	}
	return int64(len(ancestors)), nil
}

// TemplateName returns the record's template name.
func TemplateName(_ context.Context, rec *record.Record, _ record.AncestorLookup, _ map[string]string) (any, error) {
	return rec.TemplateName, nil
}

// SmallCreatedDate returns the creation date as an int64 of the form
// yyyyMMdd, in UTC.
func SmallCreatedDate(_ context.Context, rec *record.Record, _ record.AncestorLookup, params map[string]string) (any, error) {
	name := CreatedField
	if f := params["field"]; f != "" {
		name = f
	}

	f, ok := rec.Field(name)
	if !ok || strings.TrimSpace(f.Value) == "" {
		return nil, fmt.Errorf("field %q not present", name)
	}

	t, err := parseDate(strings.TrimSpace(f.Value))
	if err != nil {
		return nil, fmt.Errorf("failed to parse field %q: %w", name, err)
	}
	t = t.UTC()
	return int64(t.Year()*10000 + int(t.Month())*100 + t.Day()), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range sitecoreLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(s, time.UTC)
}

func ancestorsFor(ctx context.Context, rec *record.Record, lookup record.AncestorLookup, params map[string]string) ([]record.Ancestor, error) {
	if lookup == nil {
		lookup = record.EmbeddedAncestors
	}
	ancestors, err := lookup.Ancestors(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ancestors: %w", err)
	}

	if stop := params["stop_at_path"]; stop != "" {
		for i, a := range ancestors {
			if strings.EqualFold(strings.TrimSuffix(a.Path, "/"), strings.TrimSuffix(stop, "/")) {
				ancestors = ancestors[:i]
				break
			}
		}
	}

	if v := params["max_depth"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid max_depth %q", v)
		}
		if n < len(ancestors) {
			ancestors = ancestors[:n]
		}
	}
	return ancestors, nil
}
