package typedef_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

func TestRegistry_BaseTypes(t *testing.T) {
	r := typedef.NewRegistry()

	roots := r.RootTypes()
	require.Len(t, roots, 4)
	ids := make([]string, 0, len(roots))
	for _, rt := range roots {
		ids = append(ids, rt.ID)
		assert.Empty(t, rt.ParentTypeID)
	}
	assert.Equal(t, []string{"cmis:document", "cmis:folder", "cmis:relationship", "cmis:policy"}, ids)

	doc, err := r.GetTypeByID("cmis:document")
	require.NoError(t, err)
	assert.True(t, doc.Versionable)
	assert.Equal(t, cmis.ContentStreamAllowedOpt, doc.ContentStreamAllowed)
	name, ok := doc.Property(cmis.PropName)
	require.True(t, ok)
	assert.True(t, name.Required)
	assert.True(t, name.Queryable)

	_, err = r.GetTypeByID("cmis:nothing")
	assert.True(t, errors.Is(err, cmis.ErrObjectNotFound))
}

func TestRegistry_ChildTypeInheritance(t *testing.T) {
	r := typedef.NewRegistry()

	invoice, err := r.CreateChildType("cmis:document", "acme:invoice", "Invoice")
	require.NoError(t, err)
	assert.Equal(t, "cmis:document", invoice.ParentTypeID)
	assert.Equal(t, cmis.BaseTypeDocument, invoice.BaseTypeID)

	name, ok := invoice.Property(cmis.PropName)
	require.True(t, ok)
	assert.True(t, name.Inherited)

	err = r.MergeCustomProperties(invoice, &typedef.PropertyDefinition{
		ID:           "acme:amount",
		PropertyType: cmis.PropertyTypeDecimal,
		Queryable:    true,
	})
	require.NoError(t, err)
	require.NoError(t, r.AddType(invoice))

	t.Run("collision with ancestor property", func(t *testing.T) {
		child, err := r.CreateChildType("acme:invoice", "acme:special", "Special")
		require.NoError(t, err)

		err = r.MergeCustomProperties(child,
			&typedef.PropertyDefinition{ID: "acme:priority", PropertyType: cmis.PropertyTypeInteger},
			&typedef.PropertyDefinition{ID: "acme:amount", PropertyType: cmis.PropertyTypeDecimal},
		)
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
		_, ok := child.Property("acme:priority")
		assert.False(t, ok, "failed merge must not modify the type")
	})

	t.Run("collision with base property", func(t *testing.T) {
		child, err := r.CreateChildType("cmis:folder", "acme:project", "Project")
		require.NoError(t, err)
		err = r.MergeCustomProperties(child, &typedef.PropertyDefinition{ID: cmis.PropName, PropertyType: cmis.PropertyTypeString})
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
	})

	t.Run("duplicate type id", func(t *testing.T) {
		_, err := r.CreateChildType("cmis:document", "acme:invoice", "Again")
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := r.CreateChildType("acme:none", "acme:x", "X")
		assert.True(t, errors.Is(err, cmis.ErrObjectNotFound))
	})

	t.Run("subtype queries", func(t *testing.T) {
		assert.True(t, r.IsSubtypeOf("acme:invoice", "cmis:document"))
		assert.False(t, r.IsSubtypeOf("cmis:document", "acme:invoice"))
		assert.Equal(t, []string{"cmis:document", "acme:invoice"}, r.SubtypeIDs("cmis:document"))
		assert.Nil(t, r.SubtypeIDs("acme:none"))
	})

	t.Run("query name lookup", func(t *testing.T) {
		byQN, err := r.GetTypeByQueryName("acme:invoice")
		require.NoError(t, err)
		assert.Equal(t, "acme:invoice", byQN.ID)
	})
}

func TestRegistry_DescendantsProjection(t *testing.T) {
	r := typedef.NewRegistry()
	for _, spec := range []struct{ parent, id string }{
		{"cmis:document", "acme:a"},
		{"acme:a", "acme:b"},
		{"acme:b", "acme:c"},
	} {
		child, err := r.CreateChildType(spec.parent, spec.id, spec.id)
		require.NoError(t, err)
		require.NoError(t, r.AddType(child))
	}

	t.Run("depth limits the tree", func(t *testing.T) {
		tree, err := r.Descendants("cmis:document", 2, false)
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Equal(t, "acme:a", tree[0].Type.ID)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "acme:b", tree[0].Children[0].Type.ID)
		assert.Empty(t, tree[0].Children[0].Children)
		assert.Nil(t, tree[0].Type.PropertyDefinitions)
	})

	t.Run("unlimited depth", func(t *testing.T) {
		tree, err := r.Descendants("cmis:document", -1, true)
		require.NoError(t, err)
		require.Len(t, tree[0].Children[0].Children, 1)
		assert.NotEmpty(t, tree[0].Type.PropertyDefinitions)
	})

	t.Run("invalid depth", func(t *testing.T) {
		_, err := r.Descendants("cmis:document", 0, false)
		assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
	})

	t.Run("projection does not alias the registry", func(t *testing.T) {
		before, err := r.GetTypeByID("acme:a")
		require.NoError(t, err)

		tree, err := r.Descendants("cmis:document", 1, true)
		require.NoError(t, err)
		tree[0].Type.DisplayName = "changed"
		tree[0].Type.PropertyDefinitions[cmis.PropName].QueryName = "changed"

		after, err := r.GetTypeByID("acme:a")
		require.NoError(t, err)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Errorf("registry copy changed (-before +after):\n%s", diff)
		}
	})
}

func TestNormalizeProperties(t *testing.T) {
	r := typedef.NewRegistry()
	tagged, err := r.CreateChildType("cmis:document", "acme:tagged", "Tagged")
	require.NoError(t, err)
	require.NoError(t, r.MergeCustomProperties(tagged,
		&typedef.PropertyDefinition{ID: "acme:tags", PropertyType: cmis.PropertyTypeString, Cardinality: cmis.CardinalityMulti},
		&typedef.PropertyDefinition{ID: "acme:count", PropertyType: cmis.PropertyTypeInteger},
		&typedef.PropertyDefinition{ID: "acme:due", PropertyType: cmis.PropertyTypeDateTime},
	))

	t.Run("converts JSON values", func(t *testing.T) {
		got, err := tagged.NormalizeProperties(map[string]any{
			"acme:tags":  []string{"a", "b"},
			"acme:count": float64(3),
			"acme:due":   "2024-05-01T10:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, got["acme:tags"])
		assert.Equal(t, int64(3), got["acme:count"])
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got["acme:due"])
	})

	t.Run("rejects bad values", func(t *testing.T) {
		for name, props := range map[string]map[string]any{
			"unknown id":        {"acme:nope": "x"},
			"fractional int":    {"acme:count": 1.5},
			"int overflow":      {"acme:count": 1e19},
			"int underflow":     {"acme:count": -1e19},
			"list in single":    {"acme:count": []int{1}},
			"unparseable date":  {"acme:due": "yesterday"},
			"wrong scalar type": {cmis.PropName: 12},
		} {
			_, err := tagged.NormalizeProperties(props)
			assert.Truef(t, errors.Is(err, cmis.ErrInvalidArgument), "%s: %v", name, err)
		}
	})

	t.Run("required name", func(t *testing.T) {
		err := tagged.CheckRequired(map[string]any{})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), cmis.PropName))
		assert.NoError(t, tagged.CheckRequired(map[string]any{cmis.PropName: "x"}))
	})
}

func TestNormalizeValue_IntegerRange(t *testing.T) {
	v, err := typedef.NormalizeValue(cmis.PropertyTypeInteger, -9223372036854775808.0)
	require.NoError(t, err)
	assert.Equal(t, int64(-9223372036854775808), v)

	_, err = typedef.NormalizeValue(cmis.PropertyTypeInteger, 9223372036854775808.0)
	assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))

	_, err = typedef.NormalizePropertyValue(&typedef.PropertyDefinition{ID: "acme:n", PropertyType: cmis.PropertyTypeInteger}, 1e19)
	assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
}
