package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/service"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/aussiebroadwan/staffroom/pkg/httpx"
	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	decoder      jwtx.Decoder
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	SessionService  *service.SessionService
	UserService     *service.UserService
	EmployeeService *service.EmployeeService
}

func NewRouter(decoder jwtx.Decoder, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		decoder:      decoder,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccount()
	r.registerEmployees()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccount() {
	h := &AccountHandler{
		SessionService: r.SessionService,
		UserService:    r.UserService,
	}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /api/account/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh-token - the one route that accepts an expired (but
	// untampered) access token; rotation itself re-validates everything.
	r.Mux.Handle("POST /api/account/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.AuthnAllowExpired(r.decoder),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /api/account/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.decoder),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/account/user",
		httpx.Chain(http.HandlerFunc(h.HandleUser),
			httpx.AuthnMiddleware(r.decoder),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /impersonation - admins only
	r.Mux.Handle("POST /api/account/impersonation",
		httpx.Chain(http.HandlerFunc(h.HandleImpersonate),
			httpx.AuthnMiddleware(r.decoder),
			httpx.RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /stop-impersonation - no role check: the caller's current
	// role is the impersonated one, which is never Admin.
	r.Mux.Handle("POST /api/account/stop-impersonation",
		httpx.Chain(http.HandlerFunc(h.HandleStopImpersonation),
			httpx.AuthnMiddleware(r.decoder),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerEmployees() {
	h := &EmployeesHandler{EmployeeService: r.EmployeeService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.decoder),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/employees", secured(h.HandleList))
	r.Mux.Handle("GET /api/employees/{id}", secured(h.HandleGet))
	r.Mux.Handle("POST /api/employees", secured(h.HandleCreate))
	r.Mux.Handle("PUT /api/employees/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/employees/{id}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll these frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
