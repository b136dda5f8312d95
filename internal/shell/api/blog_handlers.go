package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/content"
)

// =============================================================================
// Blog Handlers
// =============================================================================

// These serve the paths the edge rewrites tenant traffic to:
// /{subdomain} and /{subdomain}/{slug}.

// HeaderPostPassword carries a reader's password for a protected post.
const HeaderPostPassword = "X-Post-Password"

func (h *Handler) handleBlogHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := h.directory.FindByIdentifier(ctx, mux.Vars(r)["subdomain"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	widgets, err := h.store.ListWidgets(ctx, t.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	posts, err := h.content.ListPublishedPosts(ctx, t.ID, listOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	pages, err := h.content.ListNavPages(ctx, t.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := BlogResponse{
		Tenant:  blogTenant(t),
		Widgets: make([]WidgetResponse, 0, len(widgets)),
		Posts:   make([]PostResponse, 0, len(posts)),
		Pages:   make([]PageResponse, 0, len(pages)),
	}
	for _, wd := range widgets {
		if !wd.Enabled {
			continue
		}
		resp.Widgets = append(resp.Widgets, WidgetResponse{
			Type:    string(wd.Type),
			Enabled: wd.Enabled,
			Order:   wd.DisplayOrder,
			Config:  wd.Config,
		})
	}
	for i := range posts {
		pr := postToResponse(&posts[i])
		if posts[i].IsProtected() {
			pr.Content = nil
			pr.Excerpt = ""
		}
		resp.Posts = append(resp.Posts, pr)
	}
	for i := range pages {
		resp.Pages = append(resp.Pages, pageToResponse(&pages[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleBlogEntry serves a published post, or failing that a published page,
// under one slug.
func (h *Handler) handleBlogEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	t, err := h.directory.FindByIdentifier(ctx, vars["subdomain"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := BlogEntryResponse{Tenant: blogTenant(t)}

	post, err := h.content.PublishedPostBySlug(ctx, t.ID, vars["slug"])
	switch {
	case err == nil:
		if err := h.content.UnlockPost(post, r.Header.Get(HeaderPostPassword)); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		pr := postToResponse(post)
		resp.Post = &pr
		h.writeJSON(w, http.StatusOK, resp)
		return
	case !errors.Is(err, content.ErrPostNotFound):
		h.writeServiceError(w, r, err)
		return
	}

	page, err := h.content.PublishedPageBySlug(ctx, t.ID, vars["slug"])
	if err != nil {
		if errors.Is(err, content.ErrPageNotFound) {
			h.writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	pr := pageToResponse(page)
	resp.Page = &pr
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBlogNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
}

func blogTenant(t *tenant.Tenant) BlogTenant {
	return BlogTenant{
		Subdomain:    t.Subdomain,
		CustomDomain: t.CustomDomain,
		Settings:     t.Settings,
	}
}
