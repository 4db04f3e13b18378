package acl_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
)

func TestNew_CollapsesDuplicatesToMostRestrictive(t *testing.T) {
	a := acl.New(
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionWrite},
		acl.Ace{PrincipalID: "bob", Permission: acl.PermissionAll},
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionRead},
	)

	require.Equal(t, 2, a.Len())
	assert.Equal(t, acl.PermissionRead, a.Permission("alice"))
	assert.Equal(t, acl.PermissionAll, a.Permission("bob"))

	entries := a.Entries()
	assert.Equal(t, "alice", entries[0].PrincipalID)
	assert.Equal(t, "bob", entries[1].PrincipalID)
}

func TestAcl_HasPermission(t *testing.T) {
	a := acl.New(acl.Ace{PrincipalID: "alice", Permission: acl.PermissionWrite})

	assert.True(t, a.HasPermission("alice", acl.PermissionRead))
	assert.True(t, a.HasPermission("alice", acl.PermissionWrite))
	assert.False(t, a.HasPermission("alice", acl.PermissionAll))
	assert.False(t, a.HasPermission("bob", acl.PermissionRead))
	assert.False(t, a.HasPermission("", acl.PermissionNone))

	t.Run("AnyoneEntry", func(t *testing.T) {
		a := acl.New(
			acl.Ace{PrincipalID: acl.PrincipalAnyone, Permission: acl.PermissionRead},
			acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll},
		)
		assert.True(t, a.HasPermission("carol", acl.PermissionRead))
		assert.False(t, a.HasPermission("carol", acl.PermissionWrite))
		assert.True(t, a.HasPermission("alice", acl.PermissionAll))
		assert.Equal(t, acl.PermissionNone, a.Permission("carol"))
	})
}

func TestAcl_Mutations(t *testing.T) {
	a := acl.New()

	assert.True(t, a.AddAce(acl.Ace{PrincipalID: "zoe", Permission: acl.PermissionRead}))
	assert.True(t, a.AddAce(acl.Ace{PrincipalID: "adam", Permission: acl.PermissionWrite}))
	assert.False(t, a.AddAce(acl.Ace{PrincipalID: "zoe", Permission: acl.PermissionAll}), "existing principal is kept")
	assert.Equal(t, acl.PermissionRead, a.Permission("zoe"))

	a.SetPermission("zoe", acl.PermissionAll)
	assert.Equal(t, acl.PermissionAll, a.Permission("zoe"))

	assert.False(t, a.RemoveAce("nobody"))
	assert.True(t, a.RemoveAce("adam"))
	assert.Equal(t, []acl.Ace{{PrincipalID: "zoe", Permission: acl.PermissionAll}}, a.Entries())
}

func TestAcl_Apply(t *testing.T) {
	base := acl.New(
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionRead},
		acl.Ace{PrincipalID: "bob", Permission: acl.PermissionWrite},
	)

	merged := base.Apply(
		[]acl.Ace{
			{PrincipalID: "alice", Permission: acl.PermissionAll},
			{PrincipalID: "carol", Permission: acl.PermissionWrite},
			{PrincipalID: "carol", Permission: acl.PermissionRead},
		},
		[]acl.Ace{
			{PrincipalID: "bob", Permission: acl.PermissionRead},
			{PrincipalID: "bob", Permission: acl.PermissionWrite},
		},
	)

	assert.Equal(t, []acl.Ace{
		{PrincipalID: "alice", Permission: acl.PermissionAll},
		{PrincipalID: "carol", Permission: acl.PermissionRead},
	}, merged.Entries())

	// the receiver is untouched
	assert.Equal(t, acl.PermissionWrite, base.Permission("bob"))
}

func TestAcl_EqualityIgnoresInputOrder(t *testing.T) {
	a := acl.New(
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionRead},
		acl.Ace{PrincipalID: "bob", Permission: acl.PermissionWrite},
	)
	b := acl.New(
		acl.Ace{PrincipalID: "bob", Permission: acl.PermissionWrite},
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionRead},
	)
	c := acl.New(acl.Ace{PrincipalID: "alice", Permission: acl.PermissionRead})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), c.Hash())

	clone := a.Clone()
	clone.SetPermission("alice", acl.PermissionAll)
	assert.False(t, a.Equal(clone))
}

func TestParsePermission(t *testing.T) {
	for in, want := range map[string]acl.Permission{
		"cmis:read": acl.PermissionRead,
		"WRITE":     acl.PermissionWrite,
		"cmis:all":  acl.PermissionAll,
		"none":      acl.PermissionNone,
	} {
		got, err := acl.ParsePermission(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := acl.ParsePermission("cmis:delete")
	assert.True(t, errors.Is(err, cmis.ErrInvalidArgument))
}

func TestAce_JSON(t *testing.T) {
	data, err := json.Marshal(acl.Ace{PrincipalID: "alice", Permission: acl.PermissionWrite})
	require.NoError(t, err)
	assert.JSONEq(t, `{"principal_id":"alice","permission":"cmis:write"}`, string(data))

	var ace acl.Ace
	require.NoError(t, json.Unmarshal([]byte(`{"principal_id":"bob","permission":"cmis:all"}`), &ace))
	assert.Equal(t, acl.PermissionAll, ace.Permission)
}
