package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceTypes = `
types:
  - id: acme:invoice
    parent: cmis:document
    displayName: Invoice
    queryName: invoice
    properties:
      - id: acme:amount
        queryName: amount
        type: decimal
`

func writeTypes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(invoiceTypes), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTypesCommand(t *testing.T) {
	t.Run("base types", func(t *testing.T) {
		out, err := run(t, "types")
		require.NoError(t, err)
		assert.Contains(t, out, "cmis:document (cmis:document)\n")
		assert.Contains(t, out, "cmis:folder (cmis:folder)\n")
	})

	t.Run("with file", func(t *testing.T) {
		out, err := run(t, "types", "--file", writeTypes(t), "cmis:document", "--properties")
		require.NoError(t, err)
		assert.Contains(t, out, "acme:invoice (invoice)\n")
		assert.Contains(t, out, "- acme:amount decimal single")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := run(t, "types", "acme:missing")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "types", "--file", filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})
}

func TestExplainCommand(t *testing.T) {
	path := writeTypes(t)

	out, err := run(t, "explain", "--file", path,
		"SELECT cmis:name, amount FROM invoice WHERE cmis:name = 'march' ORDER BY cmis:name DESC")
	require.NoError(t, err)
	assert.Contains(t, out, "Main type: acme:invoice (invoice)")
	assert.Contains(t, out, "acme:amount")
	assert.Contains(t, out, "Order by: cmis:name DESC")
	assert.Contains(t, out, "Where: ")

	_, err = run(t, "explain", "--file", path, "SELECT * FROM missing")
	assert.Error(t, err)

	_, err = run(t, "explain", "--no-fulltext", "SELECT * FROM cmis:document WHERE CONTAINS('x')")
	assert.Error(t, err)
}
