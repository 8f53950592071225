package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"client-portal/internal/domain"
	"client-portal/internal/middleware"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

// buildShell resolves the page chrome for the current request: effective
// principal, active tenant context, and the switcher's tenant list.
func (h *Handler) buildShell(r *http.Request) (shell, error) {
	p := principalFromContext(r.Context())
	sh := shell{Principal: p, CSRF: csrfFieldProvider(r)}

	hint := middleware.ActiveTenantFromCookie(r, h.Cookies)
	tc, err := h.Resolver.ResolveContext(r.Context(), p.EffectiveID(), hint)
	if err != nil {
		return sh, err
	}
	sh.Active = tc

	accessible, err := h.Access.ListAccessibleTenants(r.Context(), p.EffectiveID())
	if err != nil {
		return sh, err
	}
	sh.Accessible = accessible
	return sh, nil
}

// Dashboard renders the portal home: one card per feature area the active
// grant enables, or the unlinked-account state when no grants exist.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sh, err := h.buildShell(r)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	if sh.Active == nil {
		renderHTML(w, http.StatusOK, appPage("Dashboard", "home", sh,
			html.Div(
				html.Class("card"),
				html.H2(gomponents.Text("Account not linked")),
				html.P(gomponents.Text("Your account is not linked to any organization yet. Contact support to get access.")),
			),
		))
		return
	}

	cards := []gomponents.Node{}
	perms := sh.Active.Permissions
	if perms.Billing {
		cards = append(cards, featureCard("Billing",
			"Invoices and subscription status for "+sh.Active.Tenant.Name+".",
			sh.Active.Tenant.BillingCustomerID != nil))
	}
	if perms.Analytics {
		cards = append(cards, featureCard("Analytics",
			"Site traffic and engagement for "+sh.Active.Tenant.Name+".",
			sh.Active.Tenant.AnalyticsSiteID != nil))
	}
	if perms.Uptime {
		cards = append(cards, h.uptimeCard(r, sh.Active))
	}
	if len(cards) == 0 {
		cards = append(cards, html.Div(
			html.Class("card"),
			html.P(html.Class("muted"), gomponents.Text("No feature areas are enabled for this organization.")),
		))
	}

	renderHTML(w, http.StatusOK, appPage("Dashboard", "home", sh,
		html.Div(html.Class("grid"), gomponents.Group(cards)),
	))
}

func featureCard(title, description string, linked bool) gomponents.Node {
	status := html.P(html.Class("muted"), gomponents.Text("Not configured for this organization."))
	if linked {
		status = html.P(gomponents.Text(description))
	}
	return html.Div(html.Class("card"), html.H2(gomponents.Text(title)), status)
}

// uptimeCard shows the latest recorded probe for the active tenant.
func (h *Handler) uptimeCard(r *http.Request, tc *domain.TenantContext) gomponents.Node {
	check, err := h.Health.Latest(r.Context(), tc.Tenant.ID)
	if err != nil || check == nil {
		return html.Div(
			html.Class("card"),
			html.H2(gomponents.Text("Uptime")),
			html.P(html.Class("muted"), gomponents.Text("No checks recorded yet.")),
		)
	}
	return html.Div(
		html.Class("card"),
		html.H2(gomponents.Text("Uptime")),
		html.P(html.Class("status-"+check.Status), gomponents.Text(strings.ToUpper(check.Status))),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%d ms, checked %s", check.LatencyMS, formatTime(check.CheckedAt)))),
	)
}

// SwitchTenant handles the switcher form post. A denied switch renders the
// error page; the stored preference is untouched on failure.
func (h *Handler) SwitchTenant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, domain.ErrValidation("invalid form submission"))
		return
	}
	tenantID := strings.TrimSpace(r.Form.Get("tenant_id"))
	p := principalFromContext(r.Context())

	if err := h.Resolver.SwitchActiveTenant(r.Context(), p.EffectiveID(), tenantID); err != nil {
		h.renderServiceError(w, err)
		return
	}
	middleware.SetActiveTenantCookie(w, h.Cookies, tenantID, h.Production)
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

// TenantsList is the staff console tenant listing.
func (h *Handler) TenantsList(w http.ResponseWriter, r *http.Request) {
	sh, err := h.buildShell(r)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	pageReq := pageFromRequest(r, 30)
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	tenants, total, err := h.Tenant.List(r.Context(), includeArchived, pageReq)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	rows := make([]gomponents.Node, 0, len(tenants))
	for i := range tenants {
		t := tenants[i]
		archived := "no"
		if t.Archived {
			archived = "yes"
		}
		rows = append(rows, html.Tr(
			data.Show(containsExpr(t.Name)),
			html.Td(gomponents.Text(t.Name)),
			html.Td(html.Code(gomponents.Text(t.ID))),
			html.Td(gomponents.Text(archived)),
			html.Td(gomponents.Text(formatTime(t.CreatedAt))),
		))
	}

	renderHTML(w, http.StatusOK, appPage("Tenants", "tenants", sh,
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			html.Div(html.Class("card"), html.Label(gomponents.Text("Quick filter")), html.Input(html.Type("text"), data.Bind("q"), html.Placeholder("Filter by tenant name"))),
			html.Div(html.Class("card table-wrap"), html.Table(
				html.THead(html.Tr(html.Th(gomponents.Text("Name")), html.Th(gomponents.Text("ID")), html.Th(gomponents.Text("Archived")), html.Th(gomponents.Text("Created")))),
				html.TBody(gomponents.Group(rows)),
			)),
		),
		paginationCard("/ui/tenants", pageReq, total),
	))
}

// ImpersonationPage lets administrators pick a principal to impersonate.
func (h *Handler) ImpersonationPage(w http.ResponseWriter, r *http.Request) {
	sh, err := h.buildShell(r)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}

	var body gomponents.Node
	if sh.Principal.IsImpersonating() {
		body = html.Div(
			html.Class("card"),
			html.P(gomponents.Text("An impersonation session is active. Use the banner above to stop it.")),
		)
	} else {
		body = html.Div(
			html.Class("card"),
			html.H2(gomponents.Text("Impersonate a user")),
			html.P(html.Class("muted"), gomponents.Text("You will see exactly what this user sees. Every action is audited under your name.")),
			html.Form(
				html.Method("post"),
				html.Action("/ui/impersonation/start"),
				sh.CSRF(),
				html.Label(gomponents.Text("Principal ID")),
				html.Input(html.Type("text"), html.Name("target_id"), html.Placeholder("idp|user-id")),
				html.Button(html.Type("submit"), gomponents.Text("Start")),
			),
		)
	}
	renderHTML(w, http.StatusOK, appPage("Impersonation", "impersonation", sh, body))
}

// ImpersonationStart handles the start form post and sets the signed session
// cookie.
func (h *Handler) ImpersonationStart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, domain.ErrValidation("invalid form submission"))
		return
	}
	p := principalFromContext(r.Context())

	session, err := h.Impersonation.Start(r.Context(), p, strings.TrimSpace(r.Form.Get("target_id")))
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	if err := middleware.SetImpersonationCookie(w, h.Cookies, session, h.Production); err != nil {
		h.renderServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

// ImpersonationStop ends the active session and clears the cookie.
func (h *Handler) ImpersonationStop(w http.ResponseWriter, r *http.Request) {
	p := principalFromContext(r.Context())
	if err := h.Impersonation.Stop(r.Context(), p); err != nil {
		h.renderServiceError(w, err)
		return
	}
	middleware.ClearImpersonationCookie(w, h.Production)
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + fmt.Sprintf("%q", lower) + ".includes($q.toLowerCase())"
}

func (h *Handler) renderServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &accessDenied) {
		status = http.StatusForbidden
		title = "Access Denied"
		message = accessDenied.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	}

	renderHTML(w, status, errorPage(title, message))
}
