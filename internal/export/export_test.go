package export_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/export"
)

var seeded = catalog.DefaultSeed(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.FormatJSON, seeded))

	assert.Contains(t, buf.String(), "\n  {", "output should be indented")

	var decoded []catalog.MenuItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, len(seeded))
	assert.Equal(t, "Chocolate Fudge Cake", decoded[0].Name)
	assert.True(t, decoded[0].BasePrice.Equal(seeded[0].BasePrice))
}

func TestWriteJSON_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.FormatXLSX, seeded))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Menu", sheet.Name)
	require.Len(t, sheet.Rows, len(seeded)+1)

	header := sheet.Rows[0]
	assert.Equal(t, "ID", header.Cells[0].String())
	assert.Equal(t, "BasePrice", header.Cells[5].String())

	first := sheet.Rows[1]
	assert.Equal(t, "1", first.Cells[0].String())
	assert.Equal(t, "Chocolate Fudge Cake", first.Cells[1].String())
	assert.Equal(t, "850.00", first.Cells[5].String())
	assert.True(t, first.Cells[7].Bool())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := export.Write(&bytes.Buffer{}, "csv", seeded)
	assert.True(t, errors.Is(err, export.ErrUnknownFormat))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "menu-items.json", export.Filename(export.FormatJSON))
	assert.Equal(t, "menu-items.xlsx", export.Filename(export.FormatXLSX))
	assert.Equal(t, "application/json", export.ContentType(export.FormatJSON))
}
