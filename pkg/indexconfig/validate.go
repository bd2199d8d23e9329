package indexconfig

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/contentsearch/pkg/fieldtype"
)

// Validate checks the index definition. computedTypes lists the computed field
// function names that may be referenced; nil skips that check.
func (i *Index) Validate(computedTypes []string) error {
	var result *multierror.Error

	strategies := make([]interface{}, len(ValidStrategies))
	for n, s := range ValidStrategies {
		strategies[n] = s
	}

	if err := validation.ValidateStruct(i,
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.MaxFieldLength, validation.Min(4)),
		validation.Field(&i.ObjectIDMode, validation.In(ObjectIDModeID, ObjectIDModePath)),
		validation.Field(&i.UpdateMode, validation.In(UpdateModeBatched, UpdateModeImmediate)),
		validation.Field(&i.Strategies, validation.Each(validation.In(strategies...))),
	); err != nil {
		result = multierror.Append(result, err)
	}

	for n, c := range i.Crawlers {
		if err := validation.ValidateStruct(&c,
			validation.Field(&c.Database, validation.Required),
			validation.Field(&c.Root, validation.Required),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("crawler %d: %w", n, err))
		}
	}

	if i.PropertyStore != nil && i.PropertyStore.Database == "" {
		result = multierror.Append(result, fmt.Errorf("property_store: database is required"))
	}

	for _, ft := range i.FieldTypes {
		if strings.TrimSpace(ft.Name) == "" {
			result = multierror.Append(result, fmt.Errorf("field_type: name is required"))
			continue
		}
		if _, err := fieldtype.ParseKind(ft.Kind); err != nil {
			result = multierror.Append(result, fmt.Errorf("field_type %q: %w", ft.Name, err))
		}
	}

	known := make(map[string]bool, len(computedTypes))
	for _, t := range computedTypes {
		known[t] = true
	}
	names := make(map[string]bool, len(i.ComputedFields))
	for _, cf := range i.ComputedFields {
		if names[cf.Name] {
			result = multierror.Append(result, fmt.Errorf("computed_field %q: duplicate name", cf.Name))
		}
		names[cf.Name] = true
		if computedTypes != nil && !known[cf.Type] {
			result = multierror.Append(result,
				fmt.Errorf("computed_field %q: unknown type %q", cf.Name, cf.Type))
		}
	}

	for n, tag := range i.Tags {
		if strings.TrimSpace(tag.Source) == "" {
			result = multierror.Append(result, fmt.Errorf("tag %d: source is required", n))
		}
	}

	return result.ErrorOrNil()
}
