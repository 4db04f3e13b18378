// Package api is the JSON-over-HTTP binding of the object service.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// UserHeader names the caller when no JWT secret is configured.
const UserHeader = "X-CMIS-User"

// Handler serves the repositories of one service.
type Handler struct {
	service *service.Service
	auth    *jwtauth.JWTAuth
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithJWTSecret makes the handler take the principal from the sub claim of
// an HS256 bearer token.
func WithJWTSecret(secret string) Option {
	return func(h *Handler) {
		if secret != "" {
			h.auth = jwtauth.New("HS256", []byte(secret), nil)
		}
	}
}

// WithLogger sets the request logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a handler for svc.
func NewHandler(svc *service.Service, opts ...Option) *Handler {
	h := &Handler{service: svc}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes returns the routes for repositories
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
	}
	r.Use(h.principal)

	r.Get("/", h.ListRepositories)
	r.Route("/{repositoryID}", func(r chi.Router) {
		r.Get("/", h.GetRepository)

		r.Get("/types", h.TypeChildren)
		r.Post("/types", h.CreateType)
		r.Get("/types/{typeID}", h.GetType)
		r.Get("/types/{typeID}/children", h.TypeChildren)
		r.Get("/types/{typeID}/descendants", h.TypeDescendants)

		r.Get("/path", h.GetObjectByPath)
		r.Post("/folders", h.CreateFolder)
		r.Post("/documents", h.CreateDocument)
		r.Post("/policies", h.CreatePolicy)
		r.Post("/relationships", h.CreateRelationship)
		r.Get("/checkedout", h.CheckedOut)
		r.Post("/query", h.Query)

		r.Route("/objects/{id}", func(r chi.Router) {
			r.Get("/", h.GetObject)
			r.Delete("/", h.DeleteObject)
			r.Delete("/tree", h.DeleteTree)
			r.Put("/properties", h.UpdateProperties)
			r.Post("/move", h.MoveObject)

			r.Get("/children", h.Children)
			r.Get("/descendants", h.Descendants)
			r.Get("/parent", h.FolderParent)
			r.Get("/parents", h.ObjectParents)
			r.Post("/folders", h.AddObjectToFolder)
			r.Delete("/folders", h.RemoveObjectFromFolder)
			r.Delete("/folders/{folderID}", h.RemoveObjectFromFolder)

			r.Get("/content", h.GetContent)
			r.Put("/content", h.SetContent)
			r.Delete("/content", h.DeleteContent)

			r.Post("/checkout", h.CheckOut)
			r.Post("/checkin", h.CheckIn)
			r.Post("/cancelcheckout", h.CancelCheckOut)
			r.Get("/versions", h.AllVersions)
			r.Get("/latest", h.LatestVersion)

			r.Get("/acl", h.GetACL)
			r.Post("/acl", h.ApplyACL)
			r.Get("/actions", h.AllowableActions)
		})
	})
	return r
}

// principal resolves the calling principal and stores it in the request
// context for the service.
func (h *Handler) principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := acl.PrincipalAnonymous
		if h.auth != nil {
			token, claims, err := jwtauth.FromContext(r.Context())
			switch {
			case errors.Is(err, jwtauth.ErrNoTokenFound):
			case err != nil || token == nil:
				h.writeError(w, r, cmis.Errorf(cmis.ErrPermissionDenied, "invalid bearer token"), http.StatusUnauthorized)
				return
			default:
				if sub, _ := claims["sub"].(string); sub != "" {
					p = sub
				}
			}
		} else if user := r.Header.Get(UserHeader); user != "" {
			p = user
		}
		next.ServeHTTP(w, r.WithContext(service.WithPrincipal(r.Context(), p)))
	})
}

func repositoryID(r *http.Request) string {
	return chi.URLParam(r, "repositoryID")
}

func objectID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cmis.Errorf(cmis.ErrInvalidArgument, "%s must be an integer", name)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, cmis.Errorf(cmis.ErrInvalidArgument, "%s must be a boolean", name)
	}
	return b, nil
}

func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return cmis.Errorf(cmis.ErrInvalidArgument, "invalid request body: %v", err)
	}
	return nil
}
