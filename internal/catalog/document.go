package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is a parsed catalog. The underlying tree keeps JSON numbers as json.Number
// so schema validation sees exactly what was submitted.
type Document struct {
	raw map[string]any
}

// NewDocument wraps an already decoded catalog tree
func NewDocument(raw map[string]any) *Document {
	return &Document{raw: raw}
}

// Raw returns the decoded tree
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Title returns the catalog title, or an empty string
func (d *Document) Title() string {
	return scalarString(d.raw["title"])
}

// Dataset is the listing view of a declared dataset
type Dataset struct {
	Identifier    string         `json:"identifier"`
	Title         string         `json:"title"`
	Distributions []Distribution `json:"distributions,omitempty"`
}

// Distribution is the listing view of a declared distribution
type Distribution struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title,omitempty"`
	DownloadURL string `json:"downloadURL,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// Datasets returns every declared dataset in document order
func (d *Document) Datasets() []Dataset {
	items, _ := d.raw["dataset"].([]any)
	datasets := make([]Dataset, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		datasets = append(datasets, Dataset{
			Identifier:    scalarString(obj["identifier"]),
			Title:         scalarString(obj["title"]),
			Distributions: distributionsOf(obj),
		})
	}
	return datasets
}

// Dataset looks up a dataset by identifier
func (d *Document) Dataset(identifier string) (Dataset, bool) {
	for _, ds := range d.Datasets() {
		if ds.Identifier == identifier {
			return ds, true
		}
	}
	return Dataset{}, false
}

// datasetIdentifierAt returns the identifier of the dataset at index i
func (d *Document) datasetIdentifierAt(i int) string {
	items, _ := d.raw["dataset"].([]any)
	if i < 0 || i >= len(items) {
		return ""
	}
	obj, _ := items[i].(map[string]any)
	return scalarString(obj["identifier"])
}

// MarshalJSON renders the document as a data.json catalog
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.raw)
}

func distributionsOf(dataset map[string]any) []Distribution {
	items, _ := dataset["distribution"].([]any)
	out := make([]Distribution, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Distribution{
			Identifier:  scalarString(obj["identifier"]),
			Title:       scalarString(obj["title"]),
			DownloadURL: scalarString(obj["downloadURL"]),
			FileName:    scalarString(obj["fileName"]),
		})
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
