package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/handler"
	"example.com/blog-api/internal/http/middleware"
	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/config"
)

// Deps is everything the router needs. It owns no state of its own.
type Deps struct {
	Config   config.Config
	Accounts *core.AccountService
	Posts    *core.PostService
	Verifier middleware.Verifier
	Logger   logging.Logger
}

func Build(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))

	h := handler.New(d.Accounts, d.Posts, handler.CookiePolicy{
		Enabled: d.Config.Transport != config.TransportBearer,
		Secure:  d.Config.Production(),
		TTL:     d.Config.TokenTTL,
	}, d.Logger)

	authn := middleware.AuthN(d.Verifier, middleware.ExtractorFor(d.Config.Transport), d.Logger)
	adminOnly := middleware.AuthZRoles(d.Logger, core.RoleAdmin)
	members := middleware.AuthZRoles(d.Logger, core.RoleUser, core.RoleAdmin)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Public endpoints
	r.Get("/health", h.Health)
	r.Post("/users/signup", h.SignUp)
	r.Post("/users", h.SignUp)
	r.Post("/users/login", h.Login)
	r.Post("/users/logout", h.Logout)
	r.Get("/blogs", h.ListPosts)
	r.Get("/blogs/{id}", h.GetPost)

	// Protected endpoints
	r.Group(func(auth chi.Router) {
		auth.Use(authn)
		auth.Get("/users/me", h.Me)
		auth.Get("/users/{id}", h.GetUser)

		auth.Group(func(member chi.Router) {
			member.Use(members)
			member.Post("/blogs", h.CreatePost)
			member.Put("/blogs/{id}", h.UpdatePost)
			member.Delete("/blogs/{id}", h.DeletePost)
		})

		// Admin-only endpoints
		auth.Group(func(admin chi.Router) {
			admin.Use(adminOnly)
			admin.Get("/users", h.ListUsers)
			admin.Get("/admin/stats", h.AdminStats)
		})
	})

	return r
}
