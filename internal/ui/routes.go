package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"client-portal/internal/ui/assets"
)

func MountRoutes(r chi.Router, h *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)
	r.Post("/logout", h.Logout)

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.CookieHeaderBridge)
		r.Use(authMiddleware)
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Dashboard)
		r.Post("/switch", h.SwitchTenant)
		r.Get("/tenants", h.TenantsList)
		r.Get("/impersonation", h.ImpersonationPage)
		r.Post("/impersonation/start", h.ImpersonationStart)
		r.Post("/impersonation/stop", h.ImpersonationStop)
	})
}
