package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetCatalog      = "catalog"
	sheetDataset      = "dataset"
	sheetDistribution = "distribution"

	prefixCatalog      = "catalog_"
	prefixDataset      = "dataset_"
	prefixDistribution = "distribution_"

	listSeparator = ","
)

// listFields are stored as comma separated cells
var listFields = []string{"keyword", "language", "superTheme", "theme"}

// ParseXLSX reads a spreadsheet catalog. Each sheet has a header row whose columns
// are prefixed with the sheet's entity name; underscores nest into objects
// (catalog_publisher_name becomes publisher.name). Distribution rows are attached
// to datasets through their dataset_identifier column.
func ParseXLSX(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer func() {
		_ = f.Close()
	}()

	catalogRows, err := f.GetRows(sheetCatalog)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s sheet: %w", ErrMalformed, sheetCatalog, err)
	}
	datasetRows, err := f.GetRows(sheetDataset)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s sheet: %w", ErrMalformed, sheetDataset, err)
	}

	raw := make(map[string]any)
	if len(catalogRows) > 1 {
		assignRow(raw, catalogRows[0], catalogRows[1], prefixCatalog)
	}

	datasets := make([]any, 0, len(datasetRows))
	byIdentifier := make(map[string]map[string]any)
	if len(datasetRows) > 0 {
		header := datasetRows[0]
		for _, row := range datasetRows[1:] {
			if isBlank(row) {
				continue
			}
			ds := make(map[string]any)
			assignRow(ds, header, row, prefixDataset)
			ds["distribution"] = []any{}
			datasets = append(datasets, ds)
			byIdentifier[scalarString(ds["identifier"])] = ds
		}
	}

	// The distribution sheet is optional
	if slices.Contains(f.GetSheetList(), sheetDistribution) {
		distRows, err := f.GetRows(sheetDistribution)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if err := attachDistributions(byIdentifier, distRows); err != nil {
			return nil, err
		}
	}

	raw["dataset"] = datasets
	return NewDocument(raw), nil
}

func attachDistributions(datasets map[string]map[string]any, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	datasetCol := slices.Index(header, prefixDataset+"identifier")
	if datasetCol < 0 {
		return fmt.Errorf("%w: %s sheet has no %sidentifier column", ErrMalformed, sheetDistribution, prefixDataset)
	}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		var datasetID string
		if datasetCol < len(row) {
			datasetID = strings.TrimSpace(row[datasetCol])
		}
		ds, ok := datasets[datasetID]
		if !ok {
			return fmt.Errorf("%w: distribution row %d references unknown dataset %q", ErrMalformed, i+2, datasetID)
		}
		dist := make(map[string]any)
		assignRow(dist, header, row, prefixDistribution)
		ds["distribution"] = append(ds["distribution"].([]any), dist)
	}
	return nil
}

func assignRow(target map[string]any, header, row []string, prefix string) {
	for i, column := range header {
		if !strings.HasPrefix(column, prefix) || i >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		path := strings.Split(strings.TrimPrefix(column, prefix), "_")
		setPath(target, path, cellValue(path[len(path)-1], cell))
	}
}

func cellValue(field, cell string) any {
	if !slices.Contains(listFields, field) {
		return cell
	}
	parts := strings.Split(cell, listSeparator)
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

func setPath(target map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := target[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			target[key] = next
		}
		target = next
	}
	target[path[len(path)-1]] = value
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// RenderXLSX writes the document in the spreadsheet layout ParseXLSX reads.
// Arrays of objects other than datasets and distributions have no cell
// representation and are omitted.
func RenderXLSX(doc *Document, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheetCatalog); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", sheetCatalog, err)
	}
	for _, name := range []string{sheetDataset, sheetDistribution} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	catalogRow := make(map[string]string)
	for key, value := range doc.raw {
		if key == "dataset" {
			continue
		}
		flatten(catalogRow, prefixCatalog+key, value)
	}

	var datasetRows, distributionRows []map[string]string
	items, _ := doc.raw["dataset"].([]any)
	for _, item := range items {
		ds, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make(map[string]string)
		for key, value := range ds {
			if key == "distribution" {
				continue
			}
			flatten(row, prefixDataset+key, value)
		}
		datasetRows = append(datasetRows, row)

		dists, _ := ds["distribution"].([]any)
		for _, d := range dists {
			dist, ok := d.(map[string]any)
			if !ok {
				continue
			}
			drow := map[string]string{prefixDataset + "identifier": scalarString(ds["identifier"])}
			for key, value := range dist {
				flatten(drow, prefixDistribution+key, value)
			}
			distributionRows = append(distributionRows, drow)
		}
	}

	if err := writeSheet(f, sheetCatalog, []map[string]string{catalogRow}); err != nil {
		return err
	}
	if err := writeSheet(f, sheetDataset, datasetRows); err != nil {
		return err
	}
	if err := writeSheet(f, sheetDistribution, distributionRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}

func flatten(out map[string]string, key string, value any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for k, inner := range v {
			flatten(out, key+"_"+k, inner)
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			switch item.(type) {
			case string, json.Number, bool, float64:
				parts = append(parts, scalarString(item))
			default:
				return
			}
		}
		out[key] = strings.Join(parts, listSeparator)
	default:
		out[key] = scalarString(v)
	}
}

func writeSheet(f *excelize.File, sheet string, rows []map[string]string) error {
	columns := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			columns[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(columns))
	for k := range columns {
		header = append(header, k)
	}
	sort.Strings(header)

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for r, row := range rows {
		values := make([]any, len(header))
		for i, h := range header {
			values[i] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+2, err)
		}
	}
	return nil
}
