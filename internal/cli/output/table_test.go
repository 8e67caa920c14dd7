package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("FAMILY", "PENDING")

	assert.Equal(t, []string{"FAMILY", "PENDING"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("get", "3")
	table.AddRow("versions", "0")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"get", "3"}, rows[0])
	assert.Equal(t, []string{"versions", "0"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Name", "Value")
	table.AddRow("key1", "value1")
	table.AddRow("key2", "value2")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	got := buf.String()
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "VALUE")
	assert.Contains(t, got, "key1")
	assert.Contains(t, got, "value2")
}
