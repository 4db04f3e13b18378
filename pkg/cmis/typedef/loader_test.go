package typedef_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

const invoiceTypes = `
types:
  - id: acme:invoice
    parent: cmis:document
    displayName: Invoice
    queryName: invoice
    versionable: false
    contentStreamAllowed: required
    properties:
      - id: acme:amount
        queryName: amount
        type: decimal
        required: true
      - id: acme:tags
        type: string
        cardinality: multi
  - id: acme:creditNote
    parent: acme:invoice
    displayName: Credit note
`

func TestLoadYAML(t *testing.T) {
	r := typedef.NewRegistry()

	ids, err := r.LoadYAML(strings.NewReader(invoiceTypes))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme:invoice", "acme:creditNote"}, ids)

	invoice, err := r.GetTypeByQueryName("invoice")
	require.NoError(t, err)
	assert.False(t, invoice.Versionable)
	assert.Equal(t, cmis.ContentStreamRequired, invoice.ContentStreamAllowed)

	amount, ok := invoice.PropertyByQueryName("amount")
	require.True(t, ok)
	assert.Equal(t, cmis.PropertyTypeDecimal, amount.PropertyType)
	assert.True(t, amount.Required)
	assert.False(t, amount.Inherited)

	tags, ok := invoice.Property("acme:tags")
	require.True(t, ok)
	assert.True(t, tags.MultiValued())
	assert.False(t, tags.Orderable)

	credit, err := r.GetTypeByID("acme:creditNote")
	require.NoError(t, err)
	inherited, ok := credit.Property("acme:amount")
	require.True(t, ok)
	assert.True(t, inherited.Inherited)
	assert.True(t, r.IsSubtypeOf("acme:creditNote", "cmis:document"))
}

func TestLoadYAML_Errors(t *testing.T) {
	t.Run("redefined ancestor property", func(t *testing.T) {
		r := typedef.NewRegistry()
		_, err := r.LoadYAML(strings.NewReader(`
types:
  - id: acme:broken
    parent: cmis:document
    properties:
      - id: cmis:name
        type: string
`))
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
		_, err = r.GetTypeByID("acme:broken")
		assert.True(t, errors.Is(err, cmis.ErrObjectNotFound))
	})

	t.Run("unknown field", func(t *testing.T) {
		r := typedef.NewRegistry()
		_, err := r.LoadYAML(strings.NewReader("types:\n  - id: a\n    parent: cmis:folder\n    colour: red\n"))
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
	})

	t.Run("versionable folder", func(t *testing.T) {
		r := typedef.NewRegistry()
		_, err := r.LoadYAML(strings.NewReader("types:\n  - id: a\n    parent: cmis:folder\n    versionable: true\n"))
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
	})

	t.Run("empty input", func(t *testing.T) {
		r := typedef.NewRegistry()
		ids, err := r.LoadYAML(strings.NewReader(""))
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})
}
