package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/catalog.json
var catalogSchema []byte

const catalogSchemaURL = "https://schemas.opendata-catalog-server.local/catalog.json"

// Validator parses catalogs and checks them against the catalog schema.
type Validator interface {
	// Parse reads the catalog stored at path
	Parse(path string) (*Document, error)
	// IsValid reports whether the document satisfies the schema
	IsValid(doc *Document) bool
	// Validate returns the structured error report for the document
	Validate(doc *Document) *Report
}

// Report holds schema violations split by where they occur
type Report struct {
	CatalogErrors []string        `json:"catalog_errors"`
	DatasetErrors []DatasetErrors `json:"dataset_errors"`
}

// DatasetErrors holds the violations inside a single dataset
type DatasetErrors struct {
	DatasetID string   `json:"dataset_id"`
	Index     int      `json:"index"`
	Errors    []string `json:"errors"`
}

// Valid reports whether the report is empty
func (r *Report) Valid() bool {
	return len(r.CatalogErrors) == 0 && len(r.DatasetErrors) == 0
}

// Messages flattens the report: catalog-level messages first, then each
// dataset's messages in dataset order.
func (r *Report) Messages() []string {
	out := make([]string, 0, len(r.CatalogErrors))
	out = append(out, r.CatalogErrors...)
	for _, ds := range r.DatasetErrors {
		out = append(out, ds.Errors...)
	}
	return out
}

// DatasetReport returns the errors for the given dataset identifier, if any
func (r *Report) DatasetReport(identifier string) (DatasetErrors, bool) {
	for _, ds := range r.DatasetErrors {
		if ds.DatasetID == identifier {
			return ds, true
		}
	}
	return DatasetErrors{}, false
}

// SchemaValidator is the Validator backed by the embedded JSON schema
type SchemaValidator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

var _ Validator = (*SchemaValidator)(nil)

// NewSchemaValidator compiles the embedded catalog schema
func NewSchemaValidator() (*SchemaValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(catalogSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(catalogSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to register catalog schema: %w", err)
	}
	sch, err := c.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	return &SchemaValidator{
		schema:  sch,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Parse implements Validator
func (*SchemaValidator) Parse(path string) (*Document, error) {
	return ParseFile(path)
}

// IsValid implements Validator
func (v *SchemaValidator) IsValid(doc *Document) bool {
	return v.schema.Validate(any(doc.raw)) == nil
}

// Validate implements Validator
func (v *SchemaValidator) Validate(doc *Document) *Report {
	report := &Report{CatalogErrors: []string{}, DatasetErrors: []DatasetErrors{}}

	err := v.schema.Validate(any(doc.raw))
	if err == nil {
		return report
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		report.CatalogErrors = append(report.CatalogErrors, err.Error())
		return report
	}

	byDataset := make(map[int]*DatasetErrors)
	seen := make(map[string]bool)
	for _, leaf := range leaves(verr) {
		for _, msg := range v.messages(doc, leaf) {
			idx, inDataset := datasetIndex(leaf.InstanceLocation)
			key := fmt.Sprintf("%t/%d/%s", inDataset, idx, msg)
			if seen[key] {
				continue
			}
			seen[key] = true

			if !inDataset {
				report.CatalogErrors = append(report.CatalogErrors, msg)
				continue
			}
			entry, ok := byDataset[idx]
			if !ok {
				entry = &DatasetErrors{DatasetID: doc.datasetIdentifierAt(idx), Index: idx}
				byDataset[idx] = entry
			}
			entry.Errors = append(entry.Errors, msg)
		}
	}

	indexes := make([]int, 0, len(byDataset))
	for idx := range byDataset {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		report.DatasetErrors = append(report.DatasetErrors, *byDataset[idx])
	}

	return report
}

// leaves returns the most specific violations. A failed anyOf/oneOf is kept as a
// single violation since its branches are alternatives, not separate problems.
func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	switch k := err.ErrorKind.(type) {
	case *kind.AnyOf:
		return []*jsonschema.ValidationError{err}
	case *kind.OneOf:
		if len(k.Subschemas) == 0 {
			return []*jsonschema.ValidationError{err}
		}
	}
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, leaves(cause)...)
	}
	return out
}

func (v *SchemaValidator) messages(doc *Document, err *jsonschema.ValidationError) []string {
	switch k := err.ErrorKind.(type) {
	case *kind.Required:
		msgs := make([]string, 0, len(k.Missing))
		for _, prop := range k.Missing {
			msgs = append(msgs, fmt.Sprintf("'%s' is a required property", prop))
		}
		return msgs
	case *kind.AnyOf, *kind.OneOf:
		value := lookup(doc.raw, err.InstanceLocation)
		return []string{fmt.Sprintf("%s is not valid under any of the given schemas", quoteInstance(value))}
	}

	msg := err.ErrorKind.LocalizedString(v.printer)
	if len(err.InstanceLocation) == 0 {
		return []string{msg}
	}
	return []string{fmt.Sprintf("%s: %s", "/"+strings.Join(err.InstanceLocation, "/"), msg)}
}

func datasetIndex(location []string) (int, bool) {
	if len(location) < 2 || location[0] != "dataset" {
		return 0, false
	}
	idx, err := strconv.Atoi(location[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

func lookup(root any, location []string) any {
	cur := root
	for _, token := range location {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[token]
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// quoteInstance renders an offending value for a validation message
func quoteInstance(v any) string {
	if s, ok := v.(string); ok {
		return "'" + s + "'"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
