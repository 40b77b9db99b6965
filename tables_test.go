package cs4teachers

import (
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourceTable(t *testing.T) {
	table := NewResourceTable([]Resource{
		{Name: "CS Unplugged", URL: "https://csunplugged.org/", Description: "<p>Activities &amp; <b>games</b></p>"},
		{Name: "Sneaky", URL: "javascript:alert(1)", Description: "x"},
		{Name: "Mail us", URL: "mailto:hello@example.org"},
	})

	assert.Equal(t, "table", table.Class)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, "Name", table.Columns[0].Label)
	assert.Equal(t, "Description", table.Columns[1].Label)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, templ.SafeURL("https://csunplugged.org/"), table.Rows[0].URL)
	assert.Equal(t, "Activities & games", table.Rows[0].Description)
	assert.Empty(t, table.Rows[1].URL)
	assert.Equal(t, templ.SafeURL("mailto:hello@example.org"), table.Rows[2].URL)
}

func TestNewResourceTableEmpty(t *testing.T) {
	table := NewResourceTable(nil)
	assert.NotNil(t, table.Rows)
	assert.Empty(t, table.Rows)
}
