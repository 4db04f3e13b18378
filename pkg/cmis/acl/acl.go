// Package acl implements the access control lists attached to stored objects.
//
// An Acl is an ordered list of access control entries, unique per principal
// and sorted by principal id. Permissions form a total order
// NONE < READ < WRITE < ALL; holding a permission implies every lower one.
package acl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tendant/simple-cmis/pkg/cmis"
)

// Permission is a basic CMIS permission.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionWrite
	PermissionAll
)

// PrincipalAnyone grants its permission to every principal.
const PrincipalAnyone = "anyone"

// PrincipalAnonymous is the principal used for unauthenticated callers.
const PrincipalAnonymous = "anonymous"

var permissionNames = map[Permission]string{
	PermissionNone:  "cmis:none",
	PermissionRead:  "cmis:read",
	PermissionWrite: "cmis:write",
	PermissionAll:   "cmis:all",
}

func (p Permission) String() string {
	if s, ok := permissionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// MarshalText encodes p by its CMIS name.
func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a CMIS permission name.
func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Implies reports whether holding p grants required.
func (p Permission) Implies(required Permission) bool {
	return p >= required
}

// ParsePermission accepts "cmis:read" style names as well as the bare words
// none, read, write and all (case-insensitive).
func ParsePermission(s string) (Permission, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "cmis:")
	switch name {
	case "none":
		return PermissionNone, nil
	case "read":
		return PermissionRead, nil
	case "write":
		return PermissionWrite, nil
	case "all":
		return PermissionAll, nil
	}
	return PermissionNone, cmis.Errorf(cmis.ErrInvalidArgument, "unknown permission %q", s)
}

// Ace is one access control entry.
type Ace struct {
	PrincipalID string     `json:"principal_id"`
	Permission  Permission `json:"permission"`
}

// Acl is an ordered, principal-unique list of entries. The zero value is an
// empty list granting nothing. An Acl is not safe for concurrent mutation;
// the object store only mutates ACLs while holding its repository lock.
type Acl struct {
	entries []Ace
}

// New builds an ACL from externally supplied entries. When a principal
// appears more than once, the most restrictive permission wins.
func New(aces ...Ace) *Acl {
	byPrincipal := make(map[string]Permission, len(aces))
	for _, ace := range aces {
		if ace.PrincipalID == "" {
			continue
		}
		if existing, ok := byPrincipal[ace.PrincipalID]; ok && existing <= ace.Permission {
			continue
		}
		byPrincipal[ace.PrincipalID] = ace.Permission
	}
	a := &Acl{entries: make([]Ace, 0, len(byPrincipal))}
	for principal, perm := range byPrincipal {
		a.entries = append(a.entries, Ace{PrincipalID: principal, Permission: perm})
	}
	a.sort()
	return a
}

// Default returns the ACL given to objects created without one: anyone may
// do anything.
func Default() *Acl {
	return New(Ace{PrincipalID: PrincipalAnyone, Permission: PermissionAll})
}

func (a *Acl) sort() {
	sort.Slice(a.entries, func(i, j int) bool {
		return a.entries[i].PrincipalID < a.entries[j].PrincipalID
	})
}

func (a *Acl) find(principalID string) (int, bool) {
	i := sort.Search(len(a.entries), func(i int) bool {
		return a.entries[i].PrincipalID >= principalID
	})
	return i, i < len(a.entries) && a.entries[i].PrincipalID == principalID
}

// Entries returns a copy of the entries in principal order.
func (a *Acl) Entries() []Ace {
	if a == nil {
		return nil
	}
	out := make([]Ace, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of entries.
func (a *Acl) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Permission returns the permission stored for principalID, or
// PermissionNone if it has no entry. The anyone entry is not consulted.
func (a *Acl) Permission(principalID string) Permission {
	if a == nil {
		return PermissionNone
	}
	if i, ok := a.find(principalID); ok {
		return a.entries[i].Permission
	}
	return PermissionNone
}

// Effective returns the permission principalID holds, taking the anyone
// entry into account.
func (a *Acl) Effective(principalID string) Permission {
	p := a.Permission(principalID)
	if anyone := a.Permission(PrincipalAnyone); anyone > p {
		p = anyone
	}
	return p
}

// HasPermission reports whether principalID holds at least required.
func (a *Acl) HasPermission(principalID string, required Permission) bool {
	if principalID == "" {
		return false
	}
	return a.Effective(principalID).Implies(required)
}

// SetPermission sets or replaces the entry for principalID.
func (a *Acl) SetPermission(principalID string, p Permission) {
	if i, ok := a.find(principalID); ok {
		a.entries[i].Permission = p
		return
	}
	a.entries = append(a.entries, Ace{PrincipalID: principalID, Permission: p})
	a.sort()
}

// AddAce adds ace unless its principal already has an entry.
func (a *Acl) AddAce(ace Ace) bool {
	if ace.PrincipalID == "" {
		return false
	}
	if _, ok := a.find(ace.PrincipalID); ok {
		return false
	}
	a.entries = append(a.entries, ace)
	a.sort()
	return true
}

// RemoveAce removes the entry for principalID; a missing principal is a no-op.
func (a *Acl) RemoveAce(principalID string) bool {
	i, ok := a.find(principalID)
	if !ok {
		return false
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	return true
}

// Apply returns a new ACL with the remove list taken out and the add list
// merged in. A removal only matches an entry with the same principal and
// permission. Additions replace the principal's existing entry; duplicates
// within add collapse to the most restrictive permission.
func (a *Acl) Apply(add, remove []Ace) *Acl {
	out := a.Clone()
	for _, r := range remove {
		if i, ok := out.find(r.PrincipalID); ok && out.entries[i].Permission == r.Permission {
			out.entries = append(out.entries[:i], out.entries[i+1:]...)
		}
	}
	for _, ace := range New(add...).entries {
		out.SetPermission(ace.PrincipalID, ace.Permission)
	}
	return out
}

// Clone returns a deep copy of a. Cloning a nil ACL yields an empty one.
func (a *Acl) Clone() *Acl {
	out := &Acl{}
	if a != nil {
		out.entries = make([]Ace, len(a.entries))
		copy(out.entries, a.entries)
	}
	return out
}

// Equal reports whether a and b grant the same permission to the same
// principals.
func (a *Acl) Equal(b *Acl) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.entries[i] != b.entries[i] {
			return false
		}
	}
	return true
}

// Hash returns a structural hash consistent with Equal.
func (a *Acl) Hash() uint64 {
	d := xxhash.New()
	if a == nil {
		return d.Sum64()
	}
	for _, e := range a.entries {
		_, _ = d.WriteString(e.PrincipalID)
		_, _ = d.Write([]byte{0, byte(e.Permission), 0})
	}
	return d.Sum64()
}

func (a *Acl) String() string {
	parts := make([]string, 0, a.Len())
	for _, e := range a.Entries() {
		parts = append(parts, e.PrincipalID+"="+e.Permission.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
