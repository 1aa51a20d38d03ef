// Package spreadsheets declares the worksheet list and cell feeds and
// their queries.
//
// List rows carry one gsx element per column. Column names are whatever
// the worksheet's header row says, so they are not declared fields; they
// live in the entry's extension bag and are read with [ListEntry.Value].
package spreadsheets

import (
	"fmt"

	"github.com/adamwoolhether/gdata/element"
)

// Namespaces of the spreadsheets schema.
const (
	NS         = "http://schemas.google.com/spreadsheets/2006"
	ExtendedNS = "http://schemas.google.com/spreadsheets/2006/extended"
)

func init() {
	element.RegisterNamespace("gs", NS)
	element.RegisterNamespace("gsx", ExtendedNS)
}

// Visibility and projection path segments.
const (
	Private = "private"
	Public  = "public"
	Full    = "full"
	Values  = "values"
)

// ListFeedURL returns the path of a worksheet's list feed.
func ListFeedURL(key, worksheet, visibility, projection string) string {
	return fmt.Sprintf("/feeds/list/%s/%s/%s/%s", key, worksheet, visibility, projection)
}

// CellFeedURL returns the path of a worksheet's cell feed.
func CellFeedURL(key, worksheet, visibility, projection string) string {
	return fmt.Sprintf("/feeds/cells/%s/%s/%s/%s", key, worksheet, visibility, projection)
}
