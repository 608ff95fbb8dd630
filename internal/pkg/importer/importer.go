// Package importer parses spreadsheet uploads into rows ready for a
// project. Each sheet becomes a page; columns are matched to the project's
// languages by header name on a best-effort basis.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"k8s.io/klog/v2"
)

var ErrNoSourceColumn = errors.New("no source text column found")

// Entry is one parsed row: the source text plus whatever per-language
// columns the sheet carried.
type Entry struct {
	SourceText   string
	Context      string
	Translations map[string]string
}

// Sheet groups the entries of one spreadsheet tab.
type Sheet struct {
	Name    string
	Entries []Entry
}

// columnMap resolves which column feeds which field. Unmatched columns are
// ignored rather than failing the import.
type columnMap struct {
	source    int
	context   int
	languages map[string]int
}

// mapColumns inspects a header row. The source column answers to "en",
// "english", "source" or "source_text"; language columns are matched
// case-insensitively against the project's language codes.
func mapColumns(header []string, languages []string) (columnMap, error) {
	cm := columnMap{source: -1, context: -1, languages: make(map[string]int)}
	known := make(map[string]string, len(languages))
	for _, lang := range languages {
		known[strings.ToLower(lang)] = lang
	}

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "en", "english", "source", "source_text":
			if cm.source == -1 {
				cm.source = i
			}
		case "context", "note", "notes":
			if cm.context == -1 {
				cm.context = i
			}
		default:
			if lang, ok := known[name]; ok {
				cm.languages[lang] = i
			}
		}
	}
	if cm.source == -1 {
		return cm, ErrNoSourceColumn
	}
	return cm, nil
}

func (cm columnMap) entry(record []string) (Entry, bool) {
	at := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	source := at(cm.source)
	if source == "" {
		return Entry{}, false
	}
	entry := Entry{
		SourceText:   source,
		Context:      at(cm.context),
		Translations: make(map[string]string, len(cm.languages)),
	}
	for lang, i := range cm.languages {
		if text := at(i); text != "" {
			entry.Translations[lang] = text
		}
	}
	return entry, true
}

// ParseXLSX reads a workbook, one Sheet per tab. Tabs without a usable
// header are skipped with a log line instead of failing the whole upload.
func ParseXLSX(r io.Reader, languages []string) ([]Sheet, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	var sheets []Sheet
	for _, name := range book.GetSheetList() {
		rows, err := book.GetRows(name)
		if err != nil {
			klog.Errorf("import: failed to read sheet %q: %v", name, err)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		cm, err := mapColumns(rows[0], languages)
		if err != nil {
			klog.V(6).Infof("import: skipping sheet %q: %v", name, err)
			continue
		}

		var entries []Entry
		for _, record := range rows[1:] {
			if entry, ok := cm.entry(record); ok {
				entries = append(entries, entry)
			}
		}
		sheets = append(sheets, Sheet{Name: name, Entries: entries})
	}
	if len(sheets) == 0 {
		return nil, ErrNoSourceColumn
	}
	return sheets, nil
}

// ParseCSV reads a single-table CSV as one sheet.
func ParseCSV(r io.Reader, sheetName string, languages []string) ([]Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoSourceColumn
	}

	cm, err := mapColumns(records[0], languages)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, record := range records[1:] {
		if entry, ok := cm.entry(record); ok {
			entries = append(entries, entry)
		}
	}
	if sheetName == "" {
		sheetName = "Imported"
	}
	return []Sheet{{Name: sheetName, Entries: entries}}, nil
}
