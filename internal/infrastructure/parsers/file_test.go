package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPath(t *testing.T) {
	assert.IsType(t, &CSVParser{}, ForPath("records.csv", ""))
	assert.IsType(t, &CSVParser{}, ForPath("records.csv", FormatAuto))
	assert.IsType(t, &JSONParser{}, ForPath("records.txt", "json"))
	assert.Nil(t, ForPath("records.txt", FormatAuto))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("type,value\nKTP,3201\n"), 0600))

	records, err := ReadFile(path, FormatAuto)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "KTP", records[0].Type)
	assert.Equal(t, 2, records[0].LineNum)
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "records.xml"), FormatAuto)
	require.ErrorContains(t, err, "unsupported format")

	_, err = ReadFile(filepath.Join(dir, "missing.json"), "")
	require.ErrorContains(t, err, "opening file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0600))
	_, err = ReadFile(bad, "json")
	require.ErrorContains(t, err, "parsing")
}
