// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/staranto/cachefetch/internal/cacheutil"
	"github.com/staranto/cachefetch/internal/config"
)

// EntryColumns are the columns of a cache listing, in display order.
var EntryColumns = []string{"key", "tag", "size", "created", "expires"}

// EntryOptions control how a cache listing is rendered.
type EntryOptions struct {
	Format string
	Filter string
	Sort   string
	Color  bool
	Titles bool
	// Now anchors relative times. Zero means time.Now.
	Now time.Time
}

// EntryRows converts entries to rows keyed by EntryColumns plus "bytes", the
// numeric size used for sorting and filtering.
func EntryRows(entries []cacheutil.Entry) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		row := map[string]interface{}{
			"key":     e.Key,
			"tag":     e.Tag,
			"bytes":   float64(len(e.Value)),
			"created": e.Created,
			"expires": e.Expires,
		}
		rows = append(rows, row)
	}
	return rows
}

// EmitEntries filters, sorts and renders entries to w.
func EmitEntries(w io.Writer, entries []cacheutil.Entry, opts EntryOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rows := FilterRows(EntryRows(entries), opts.Filter)
	SortDataset(rows, opts.Sort)

	switch opts.Format {
	case "json", "yaml":
		views := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			views = append(views, map[string]interface{}{
				"key":     row["key"],
				"tag":     row["tag"],
				"bytes":   int(row["bytes"].(float64)),
				"created": row["created"].(time.Time).Format(time.RFC3339),
				"expires": formatExpiry(row["expires"].(time.Time), time.RFC3339),
			})
		}
		if opts.Format == "json" {
			return emitJSON(w, views)
		}
		return emitYAML(w, views)
	}

	for _, row := range rows {
		row["size"] = humanize.Bytes(uint64(row["bytes"].(float64)))
		row["created"] = humanize.RelTime(row["created"].(time.Time), now, "ago", "from now")
		if exp := row["expires"].(time.Time); exp.IsZero() {
			row["expires"] = "never"
		} else {
			row["expires"] = humanize.RelTime(exp, now, "ago", "from now")
		}
	}
	TableWriter(rows, EntryColumns, opts.Color, opts.Titles, w)
	return nil
}

func formatExpiry(t time.Time, layout string) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(layout)
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(
	resultSet []map[string]interface{},
	columns []string,
	color bool,
	titles bool,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 2)
	log.Debugf("padding: %v", pad)

	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, InterfaceToString(result[c], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(rows...)

	if titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(columns...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
