// Package customer binds each customer kind to its extraction strategy,
// decision table and report table. The kind set is closed: a config entry
// naming an unknown extractor fails loudly instead of being skipped.
package customer

import (
	"fmt"
	"strconv"

	"pharmatrack/internal/classify"
	"pharmatrack/internal/config"
	"pharmatrack/internal/extract"
	"pharmatrack/internal/store"
	"pharmatrack/internal/textutil"
)

// Kind identifies one of the supported customer workbook layouts.
type Kind string

const (
	KindCaplin        Kind = "caplin"
	KindBells         Kind = "bells"
	KindRelonchem     Kind = "relonchem"
	KindMarksansUSA   Kind = "marksans_usa"
	KindPadagisUSA    Kind = "padagis_usa"
	KindPadagisIsrael Kind = "padagis_israel"
)

var kinds = map[string]Kind{
	string(KindCaplin):        KindCaplin,
	string(KindBells):         KindBells,
	string(KindRelonchem):     KindRelonchem,
	string(KindMarksansUSA):   KindMarksansUSA,
	string(KindPadagisUSA):    KindPadagisUSA,
	string(KindPadagisIsrael): KindPadagisIsrael,
}

// ParseKind resolves an extractor tag to a Kind.
func ParseKind(extractor string) (Kind, error) {
	kind, ok := kinds[extractor]
	if !ok {
		return "", fmt.Errorf("unknown extractor %q", extractor)
	}
	return kind, nil
}

// minColumns is the smallest column set each layout needs. The canonical
// order is fixed per kind; config may rename columns but not reorder them.
var minColumns = map[Kind]int{
	KindCaplin:        6, // S.No, Product Name, Strength, Unit, Active Ingredients, Withdrawn Date
	KindBells:         3, // S.No, Active Ingredients, Licence Status
	KindRelonchem:     3, // S.No, Active Ingredients, Marketing Status
	KindMarksansUSA:   4, // S.No, Active Ingredients, Approval Status, Withdrawn Date
	KindPadagisUSA:    5, // S.No, NDC No, Product Name, Status, Comments
	KindPadagisIsrael: 2, // S.No, Active Ingredients
}

var bellsColors = extract.NewRGBClassifier(map[extract.RGB]string{
	{R: 204, G: 255, B: 255}: "Marketed",
	{R: 150, G: 150, B: 150}: "Licence cancelled by MAH",
	{R: 255, G: 204, B: 153}: "Not Marketed",
})

// relonchemColorKeys mixes legacy palette tokens with one explicit hex; the
// token classifier normalizes them once at startup.
var relonchemColorKeys = map[string]string{
	"9":        "Marketed",
	"0":        "Licence cancelled by the MAH",
	"7":        "Licence Application Pending",
	"5":        "Not Marketed",
	"8":        "Invented name deleted",
	"FFFFFF00": "Newly Added",
}

var padagisUSAColorKeys = map[string]string{
	"FFFF5050": "Red",
}

// Binding couples a configured customer with its kind and report table.
type Binding struct {
	Customer config.Customer
	Kind     Kind
	Table    store.ReportTable
}

// Bind validates a customer's configuration and resolves its report table.
func Bind(c config.Customer) (*Binding, error) {
	kind, err := ParseKind(c.Extractor)
	if err != nil {
		return nil, fmt.Errorf("customer %q: %w", c.Name, err)
	}
	if len(c.Columns) < minColumns[kind] {
		return nil, fmt.Errorf("customer %q: extractor %s needs at least %d columns, got %d",
			c.Name, kind, minColumns[kind], len(c.Columns))
	}
	table, err := store.ReportTableFor(string(kind))
	if err != nil {
		return nil, fmt.Errorf("customer %q: %w", c.Name, err)
	}
	return &Binding{Customer: c, Kind: kind, Table: table}, nil
}

// Process extracts the customer workbook and classifies every row.
func (b *Binding) Process(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	switch b.Kind {
	case KindCaplin:
		return b.processCaplin(wb, salts, defaultRemark)
	case KindBells:
		return b.processBells(wb, salts, defaultRemark)
	case KindRelonchem:
		return b.processRelonchem(wb, salts, defaultRemark)
	case KindMarksansUSA:
		return b.processMarksansUSA(wb, salts, defaultRemark)
	case KindPadagisUSA:
		return b.processPadagisUSA(wb, salts, defaultRemark)
	case KindPadagisIsrael:
		return b.processPadagisIsrael(wb, salts, defaultRemark)
	default:
		return nil, fmt.Errorf("unhandled kind %q", b.Kind)
	}
}

func (b *Binding) processCaplin(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	rows, err := wb.Rows(b.Customer.SheetNames[0], b.Customer.Columns, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.Caplin(row.Fields[5], defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:             rowNumber(row.Fields[0], row.RowNo),
			ProductName:       row.Fields[1],
			Strength:          row.Fields[2],
			Unit:              row.Fields[3],
			ActiveIngredients: row.Fields[4],
			FilteredName:      salts.Normalize(row.Fields[4]),
			WithdrawnDate:     row.Fields[5],
			IncludeExclude:    verdict.Status,
			Remark:            verdict.Remark,
		})
	}
	return records, nil
}

func (b *Binding) processBells(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	statusColumn := b.Customer.Columns[2]
	rows, err := wb.ColoredRows(b.Customer.SheetNames[0], b.Customer.Columns, bellsColors, statusColumn, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.Bells(row.ColorStatus, defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:             rowNumber(row.Fields[0], row.RowNo),
			ActiveIngredients: row.Fields[1],
			FilteredName:      salts.Normalize(row.Fields[1]),
			ColorStatus:       row.ColorStatus,
			IncludeExclude:    verdict.Status,
			Remark:            verdict.Remark,
		})
	}
	return records, nil
}

func (b *Binding) processRelonchem(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	classifier, err := extract.NewTokenClassifier(relonchemColorKeys)
	if err != nil {
		return nil, err
	}
	statusColumn := b.Customer.Columns[2]
	rows, err := wb.ColoredRows(b.Customer.SheetNames[0], b.Customer.Columns, classifier, statusColumn, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.Relonchem(row.ColorStatus, defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:             rowNumber(row.Fields[0], row.RowNo),
			ActiveIngredients: row.Fields[1],
			FilteredName:      salts.Normalize(row.Fields[1]),
			ColorStatus:       row.ColorStatus,
			IncludeExclude:    verdict.Status,
			Remark:            verdict.Remark,
		})
	}
	return records, nil
}

func (b *Binding) processMarksansUSA(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	rows, err := wb.Rows(b.Customer.SheetNames[0], b.Customer.Columns, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.MarksansUSA(row.Fields[2], row.Fields[3], defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:             rowNumber(row.Fields[0], row.RowNo),
			ActiveIngredients: row.Fields[1],
			FilteredName:      salts.Normalize(row.Fields[1]),
			ApprovalStatus:    row.Fields[2],
			WithdrawnDate:     row.Fields[3],
			IncludeExclude:    verdict.Status,
			Remark:            verdict.Remark,
		})
	}
	return records, nil
}

func (b *Binding) processPadagisUSA(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	classifier, err := extract.NewTokenClassifier(padagisUSAColorKeys)
	if err != nil {
		return nil, err
	}
	productColumn := b.Customer.Columns[2]
	rows, err := wb.MultiSheetColoredRows(b.Customer.SheetNames, b.Customer.Columns, classifier, productColumn, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.PadagisUSA(row.SheetName, row.ColorStatus, row.Fields[4], defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:          rowNumber(row.Fields[0], row.RowNo),
			SheetName:      row.SheetName,
			NDC:            row.Fields[1],
			ProductName:    row.Fields[2],
			FilteredName:   salts.Normalize(row.Fields[2]),
			Comment:        row.Fields[4],
			ColorStatus:    row.ColorStatus,
			IncludeExclude: verdict.Status,
			Remark:         verdict.Remark,
		})
	}
	return records, nil
}

func (b *Binding) processPadagisIsrael(wb *extract.Workbook, salts *textutil.SaltSet, defaultRemark string) ([]store.ReportRecord, error) {
	rows, err := wb.Rows(b.Customer.SheetNames[0], b.Customer.Columns, b.Customer.HeaderStart)
	if err != nil {
		return nil, err
	}
	records := make([]store.ReportRecord, 0, len(rows))
	for _, row := range rows {
		verdict := classify.PadagisIsrael(defaultRemark)
		records = append(records, store.ReportRecord{
			RowNo:             rowNumber(row.Fields[0], row.RowNo),
			ActiveIngredients: row.Fields[1],
			FilteredName:      salts.Normalize(row.Fields[1]),
			IncludeExclude:    verdict.Status,
			Remark:            verdict.Remark,
		})
	}
	return records, nil
}

// rowNumber prefers the workbook's own serial number column; rows without a
// usable serial fall back to the sheet row.
func rowNumber(sno string, fallback int) int {
	if n, err := strconv.Atoi(sno); err == nil && n > 0 {
		return n
	}
	return fallback
}
