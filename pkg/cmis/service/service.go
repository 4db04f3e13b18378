// Package service is the object-service facade over a set of in-memory
// repositories. Bindings call it with the repository id and a context that
// carries the calling principal; it enforces ACL permissions and capability
// flags, moves content bytes to and from the BlobStore, and reports every
// operation to an Observer and object changes to an EventSink.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

// Observer is told about every completed service operation.
type Observer interface {
	ObserveOperation(repositoryID, op string, d time.Duration, err error)
}

// Service implements the CMIS object services.
type Service struct {
	manager        *store.Manager
	blobs          cmis.BlobStore
	events         cmis.EventSink
	observer       Observer
	logger         *slog.Logger
	maxContentSize int64
}

// Option represents a functional option for configuring the service
type Option func(*Service)

// WithManager sets the repositories the service operates on
func WithManager(m *store.Manager) Option {
	return func(s *Service) {
		s.manager = m
	}
}

// WithBlobStore sets the backend holding content stream bytes
func WithBlobStore(b cmis.BlobStore) Option {
	return func(s *Service) {
		s.blobs = b
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink cmis.EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// WithObserver sets the operation observer, e.g. a metrics recorder
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMaxContentSize limits the size of a single content stream. Zero or
// less means no limit.
func WithMaxContentSize(n int64) Option {
	return func(s *Service) {
		s.maxContentSize = n
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (*Service, error) {
	s := &Service{
		events: cmis.NewNoopEventSink(),
	}
	for _, option := range options {
		option(s)
	}
	if s.manager == nil {
		return nil, errors.New("repository manager is required")
	}
	if s.blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Manager returns the repositories the service operates on.
func (s *Service) Manager() *store.Manager { return s.manager }

type principalKey struct{}

// WithPrincipal returns a context carrying the calling principal. Calls
// without a principal run as the repository itself and skip ACL checks.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// Principal returns the principal carried by ctx.
func Principal(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// track reports a finished operation to the observer and attaches the
// repository and operation to a failure.
func (s *Service) track(repositoryID, op string, start time.Time, errp *error) {
	err := *errp
	if s.observer != nil {
		s.observer.ObserveOperation(repositoryID, op, time.Since(start), err)
	}
	if err != nil {
		var repoErr *cmis.RepositoryError
		if !errors.As(err, &repoErr) {
			*errp = &cmis.RepositoryError{RepositoryID: repositoryID, Op: op, Err: err}
		}
	}
}

func (s *Service) repository(repositoryID string) (*store.Store, error) {
	r, err := s.manager.Repository(repositoryID)
	if err != nil {
		return nil, err
	}
	return r.Store, nil
}

// authorize fails unless the principal of ctx holds required on id.
func authorize(ctx context.Context, st *store.Store, id string, required acl.Permission) error {
	principal := Principal(ctx)
	if principal == "" {
		return nil
	}
	a, err := st.ACL(id)
	if err != nil {
		return err
	}
	if !a.HasPermission(principal, required) {
		return cmis.Errorf(cmis.ErrPermissionDenied, "%s lacks %s on %q", principal, required, id)
	}
	return nil
}

type eventKind int

const (
	eventCreated eventKind = iota
	eventUpdated
	eventDeleted
)

func (s *Service) notify(ctx context.Context, kind eventKind, repositoryID string, ids ...string) {
	for _, id := range ids {
		var err error
		switch kind {
		case eventCreated:
			err = s.events.ObjectCreated(ctx, repositoryID, id)
		case eventUpdated:
			err = s.events.ObjectUpdated(ctx, repositoryID, id)
		case eventDeleted:
			err = s.events.ObjectDeleted(ctx, repositoryID, id)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "Event sink failed", "repository_id", repositoryID, "object_id", id, "error", err)
		}
	}
}
