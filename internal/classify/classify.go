// Package classify holds the per-customer include/exclude decision tables.
// Each rule set is a pure function of extracted row fields, so changing a
// customer's policy never touches extraction or persistence code.
package classify

import "strings"

// Include and Exclude are the only statuses a verdict can carry. Report
// tables store them verbatim.
const (
	Include = "include"
	Exclude = "exclude"
)

// Verdict pairs an include/exclude decision with the remark written to the
// report row.
type Verdict struct {
	Status string
	Remark string
}

func include(defaultRemark string) Verdict {
	return Verdict{Status: Include, Remark: defaultRemark}
}

func exclude(remark string) Verdict {
	return Verdict{Status: Exclude, Remark: remark}
}

// Caplin excludes rows that carry a withdrawn date.
func Caplin(withdrawnDate, defaultRemark string) Verdict {
	if strings.TrimSpace(withdrawnDate) == "" {
		return include(defaultRemark)
	}
	return exclude("Withdrawn date is present")
}

// Bells keys off the licence status derived from the cell fill color.
func Bells(colorStatus, defaultRemark string) Verdict {
	if colorStatus == "Licence cancelled by MAH" {
		return exclude("Licence cancelled by MAH")
	}
	return include(defaultRemark)
}

// relonchemIncluded lists the marketing statuses that keep a row in.
var relonchemIncluded = map[string]struct{}{
	"Marketed":              {},
	"Not Marketed":          {},
	"Newly Added":           {},
	"Invented name deleted": {},
}

// Relonchem includes known marketing statuses and excludes everything else,
// carrying the status itself as the remark.
func Relonchem(colorStatus, defaultRemark string) Verdict {
	if _, ok := relonchemIncluded[colorStatus]; ok {
		return include(defaultRemark)
	}
	return exclude(colorStatus)
}

// MarksansUSA excludes rows whose approval status is anything other than
// approved (or blank), then rows with a withdrawn date. Approval matching
// is case-insensitive.
func MarksansUSA(approvalStatus, withdrawnDate, defaultRemark string) Verdict {
	approval := strings.ToLower(strings.TrimSpace(approvalStatus))
	if approval != "approved" && approval != "" {
		return exclude("Approval Status is not Approved")
	}
	if strings.TrimSpace(withdrawnDate) != "" {
		return exclude("Withdrawn Date is not empty")
	}
	return include(defaultRemark)
}

// contractSheetName marks rows sourced from the contract manufacturing
// sheet, which are never MAH products.
const contractSheetName = "Contract Manufactured Products"

// PadagisUSA excludes contract-manufactured rows, rows highlighted red, and
// rows whose comment mentions a discontinuation. The rules apply in that
// order; the first match wins.
func PadagisUSA(sheetName, colorStatus, comment, defaultRemark string) Verdict {
	if sheetName == contractSheetName {
		return exclude("Not MAH product")
	}
	if colorStatus == "Red" {
		return exclude("Product Highlighted in Red")
	}
	if strings.Contains(strings.ToLower(strings.TrimSpace(comment)), "discontinued") {
		return exclude(comment)
	}
	return include(defaultRemark)
}

// PadagisIsrael includes every row.
func PadagisIsrael(defaultRemark string) Verdict {
	return include(defaultRemark)
}
