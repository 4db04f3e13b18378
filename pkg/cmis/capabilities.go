package cmis

// CapabilityQuery states which query features the repository offers.
type CapabilityQuery string

const (
	CapabilityQueryNone         CapabilityQuery = "none"
	CapabilityQueryMetadataOnly CapabilityQuery = "metadataonly"
	CapabilityQueryFullTextOnly CapabilityQuery = "fulltextonly"
	CapabilityQueryBothCombined CapabilityQuery = "bothcombined"
	CapabilityQueryBothSeparate CapabilityQuery = "bothseparate"
)

// CapabilityACL states whether ACLs can be read and changed.
type CapabilityACL string

const (
	CapabilityACLNone     CapabilityACL = "none"
	CapabilityACLDiscover CapabilityACL = "discover"
	CapabilityACLManage   CapabilityACL = "manage"
)

// Capabilities are the repository capability flags bindings report to
// clients. The engine reads them but never changes them after creation.
type Capabilities struct {
	Query                 CapabilityQuery `json:"query"`
	ACL                   CapabilityACL   `json:"acl"`
	MultiFiling           bool            `json:"multifiling"`
	Unfiling              bool            `json:"unfiling"`
	PWCUpdatable          bool            `json:"pwc_updatable"`
	PWCSearchable         bool            `json:"pwc_searchable"`
	AllVersionsSearchable bool            `json:"all_versions_searchable"`
	GetDescendants        bool            `json:"get_descendants"`
}

// DefaultCapabilities returns the capability set of a freshly created
// in-memory repository.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Query:                 CapabilityQueryBothCombined,
		ACL:                   CapabilityACLManage,
		MultiFiling:           false,
		Unfiling:              false,
		PWCUpdatable:          true,
		PWCSearchable:         false,
		AllVersionsSearchable: true,
		GetDescendants:        true,
	}
}

// QueryEnabled reports whether statements may be executed at all.
func (c Capabilities) QueryEnabled() bool {
	return c.Query != "" && c.Query != CapabilityQueryNone
}

// FullTextEnabled reports whether CONTAINS may be used.
func (c Capabilities) FullTextEnabled() bool {
	return c.Query != CapabilityQueryNone && c.Query != CapabilityQueryMetadataOnly
}

// RepositoryInfo describes one repository of a Manager.
type RepositoryInfo struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	RootFolderID   string       `json:"root_folder_id"`
	ProductName    string       `json:"product_name"`
	ProductVersion string       `json:"product_version"`
	Capabilities   Capabilities `json:"capabilities"`
}
