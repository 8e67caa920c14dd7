package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, testStruct{Name: "test", Value: 42}))

	got := buf.String()
	assert.Contains(t, got, `"name": "test"`)
	assert.Contains(t, got, `"value": 42`)
}

func TestPrintJSONArray(t *testing.T) {
	data := []testStruct{
		{Name: "a", Value: 1},
		{Name: "b", Value: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, data))

	got := buf.String()
	assert.Contains(t, got, `"name": "a"`)
	assert.Contains(t, got, `"name": "b"`)
}
