// Package export renders the owner's menu as a downloadable file.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"github.com/homebake/api/internal/catalog"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

const timeLayout = "2006-01-02 15:04:05"

var xlsxHeaders = []string{
	"ID", "Name", "Description", "Category", "Image", "BasePrice",
	"PreparationTime", "IsEggless", "IsVegan", "Rating", "IsActive",
	"CreatedAt", "UpdatedAt",
}

// Filename returns the download name for format.
func Filename(format string) string {
	return "menu-items." + format
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Write renders items in the given format. An empty format means JSON.
func Write(w io.Writer, format string, items []catalog.MenuItem) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, items)
	case FormatXLSX:
		return WriteXLSX(w, items)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteJSON writes items as an indented JSON array.
func WriteJSON(w io.Writer, items []catalog.MenuItem) error {
	if items == nil {
		items = []catalog.MenuItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode menu json: %w", err)
	}
	return nil
}

// WriteXLSX writes items as a single "Menu" sheet with a header row.
func WriteXLSX(w io.Writer, items []catalog.MenuItem) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Menu")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range xlsxHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.ID)
		row.AddCell().SetString(item.Name)
		row.AddCell().SetString(item.Description)
		row.AddCell().SetString(item.Category)
		row.AddCell().SetString(item.Image)
		row.AddCell().SetString(item.BasePrice.StringFixed(2))
		row.AddCell().SetString(item.PreparationTime)
		row.AddCell().SetBool(item.IsEggless)
		row.AddCell().SetBool(item.IsVegan)
		row.AddCell().SetFloat(item.Rating)
		row.AddCell().SetBool(item.IsActive)
		row.AddCell().SetString(item.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(item.UpdatedAt.Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
