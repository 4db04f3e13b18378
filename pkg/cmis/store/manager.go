package store

import (
	"sort"
	"sync"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

const (
	productName    = "simple-cmis"
	productVersion = "0.1.0"
)

// Repository is one repository of a Manager: its description and store.
type Repository struct {
	Name        string
	Description string
	Store       *Store
}

// Info describes the repository for clients.
func (r *Repository) Info() cmis.RepositoryInfo {
	return cmis.RepositoryInfo{
		ID:             r.Store.RepositoryID(),
		Name:           r.Name,
		Description:    r.Description,
		RootFolderID:   r.Store.RootFolderID(),
		ProductName:    productName,
		ProductVersion: productVersion,
		Capabilities:   r.Store.Capabilities(),
	}
}

// Manager keeps independent repositories keyed by id. Each repository owns
// its type registry and object store.
type Manager struct {
	mu    sync.RWMutex
	repos map[string]*Repository
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{repos: make(map[string]*Repository)}
}

// RepositoryConfig describes a repository to create.
type RepositoryConfig struct {
	ID          string
	Name        string
	Description string
	// Types is the repository's registry; a fresh one with the base types
	// is used when nil.
	Types   *typedef.Registry
	Options []Option
}

// AddRepository creates a repository. Ids must be unique.
func (m *Manager) AddRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.ID == "" {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "repository id is required")
	}
	types := cfg.Types
	if types == nil {
		types = typedef.NewRegistry()
	}
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.repos[cfg.ID]; ok {
		return nil, cmis.Errorf(cmis.ErrConstraint, "repository %q already exists", cfg.ID)
	}
	r := &Repository{
		Name:        name,
		Description: cfg.Description,
		Store:       New(cfg.ID, types, cfg.Options...),
	}
	m.repos[cfg.ID] = r
	return r, nil
}

// Repository returns the repository with id.
func (m *Manager) Repository(id string) (*Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.repos[id]
	if !ok {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "repository %q", id)
	}
	return r, nil
}

// Repositories returns all repositories sorted by id.
func (m *Manager) Repositories() []*Repository {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Repository, 0, len(m.repos))
	for _, r := range m.repos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Store.RepositoryID() < out[j].Store.RepositoryID()
	})
	return out
}
