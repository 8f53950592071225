package ui

import (
	"fmt"
	"time"

	"client-portal/internal/domain"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
	Staff bool // staff/admin only
}

var navItems = []navItem{
	{Label: "Dashboard", Href: "/ui", Key: "home"},
	{Label: "Tenants", Href: "/ui/tenants", Key: "tenants", Staff: true},
	{Label: "Impersonation", Href: "/ui/impersonation", Key: "impersonation", Staff: true},
}

// shell carries everything the page chrome needs: the acting identity, the
// resolved context, and the tenants the switcher offers.
type shell struct {
	Principal  domain.ContextPrincipal
	Active     *domain.TenantContext
	Accessible []domain.AccessibleTenant
	CSRF       func() gomponents.Node
}

func appPage(title, active string, sh shell, body ...gomponents.Node) gomponents.Node {
	effective := sh.Principal.Effective()
	isStaff := effective.Role == domain.RoleAdmin || effective.Role == domain.RoleStaff

	nav := make([]gomponents.Node, 0, len(navItems))
	for _, item := range navItems {
		if item.Staff && !isStaff {
			continue
		}
		className := ""
		if item.Key == active {
			className = "active"
		}
		nav = append(nav, html.A(html.Href(item.Href), html.Class(className), gomponents.Text(item.Label)))
	}

	principalLabel := effective.Name
	if principalLabel == "" {
		principalLabel = effective.Email
	}
	if principalLabel == "" {
		principalLabel = "unknown"
	}

	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Client Portal")),
			html.Link(html.Rel("stylesheet"), html.Href("/ui/static/app.css")),
			html.Script(
				html.Type("module"),
				html.Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"),
			),
		),
		html.Body(
			html.Main(
				html.Class("layout"),
				impersonationBanner(sh),
				html.Div(
					html.Class("topbar"),
					html.Div(
						html.Strong(gomponents.Text("Client Portal")),
						activeTenantLabel(sh.Active),
					),
					html.Div(
						html.P(html.Class("muted"), gomponents.Text("Signed in as "+principalLabel+" ("+string(effective.Role)+")")),
						tenantSwitcher(sh),
						html.Form(
							html.Method("post"),
							html.Action("/ui/logout"),
							html.Button(html.Type("submit"), html.Class("secondary"), gomponents.Text("Sign out")),
						),
					),
				),
				html.Nav(html.Class("nav"), gomponents.Group(nav)),
				html.H1(html.Class("page-title"), gomponents.Text(title)),
				gomponents.Group(body),
			),
		),
	)
}

// impersonationBanner is always visible while impersonating so staff cannot
// forget whose data they are looking at.
func impersonationBanner(sh shell) gomponents.Node {
	if !sh.Principal.IsImpersonating() {
		return gomponents.Text("")
	}
	target := sh.Principal.Impersonation.TargetName
	if target == "" {
		target = sh.Principal.Impersonation.TargetID
	}
	return html.Div(
		html.Class("banner-impersonation"),
		html.P(gomponents.Text("Viewing as "+target+" — actions run with their permissions.")),
		html.Form(
			html.Method("post"),
			html.Action("/ui/impersonation/stop"),
			sh.CSRF(),
			html.Button(html.Type("submit"), gomponents.Text("Stop impersonating")),
		),
	)
}

func activeTenantLabel(active *domain.TenantContext) gomponents.Node {
	if active == nil {
		return html.P(html.Class("muted"), gomponents.Text("No tenant linked"))
	}
	return html.P(html.Class("muted"), gomponents.Text("Acting for "+active.Tenant.Name))
}

// tenantSwitcher renders only when the principal can reach more than one
// tenant.
func tenantSwitcher(sh shell) gomponents.Node {
	if len(sh.Accessible) < 2 {
		return gomponents.Text("")
	}

	options := make([]gomponents.Node, 0, len(sh.Accessible))
	for _, a := range sh.Accessible {
		attrs := []gomponents.Node{html.Value(a.Tenant.ID), gomponents.Text(a.Tenant.Name)}
		if sh.Active != nil && sh.Active.Tenant.ID == a.Tenant.ID {
			attrs = append(attrs, html.Selected())
		}
		options = append(options, html.Option(attrs...))
	}

	return html.Form(
		html.Method("post"),
		html.Action("/ui/switch"),
		html.Class("switcher"),
		sh.CSRF(),
		html.Label(gomponents.Text("Tenant")),
		html.Select(append([]gomponents.Node{html.Name("tenant_id")}, options...)...),
		html.Button(html.Type("submit"), html.Class("secondary"), gomponents.Text("Switch")),
	)
}

func errorPage(title, message string) gomponents.Node {
	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Client Portal")),
			html.Link(html.Rel("stylesheet"), html.Href("/ui/static/app.css")),
		),
		html.Body(
			html.Main(
				html.Class("layout"),
				html.H1(html.Class("page-title"), gomponents.Text(title)),
				html.P(gomponents.Text(message)),
				html.P(html.A(html.Href("/ui"), gomponents.Text("Back to dashboard"))),
			),
		),
	)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func paginationCard(basePath string, page domain.PageRequest, total int64) gomponents.Node {
	nextToken := domain.NextPageToken(page.Offset(), page.Limit(), total)
	if nextToken == "" {
		return html.Div(html.Class("card"), html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("Showing %d of %d entries.", min(page.Limit(), int(total)), total))))
	}
	url := fmt.Sprintf("%s?max_results=%d&page_token=%s", basePath, page.Limit(), nextToken)
	return html.Div(
		html.Class("card"),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("Showing up to %d of %d entries.", page.Limit(), total))),
		html.A(html.Href(url), gomponents.Text("Next page ->")),
	)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
