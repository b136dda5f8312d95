package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pintim/pint/internal/core/auth"
	corecontent "github.com/pintim/pint/internal/core/content"
	"github.com/pintim/pint/internal/shell/content"
)

// =============================================================================
// Post Handlers
// =============================================================================

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	status := corecontent.Status(r.URL.Query().Get("status"))

	posts, err := h.content.ListPosts(r.Context(), auth.FromContext(r.Context()), status, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := ListPostsResponse{
		Posts:  make([]PostResponse, 0, len(posts)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range posts {
		resp.Posts = append(resp.Posts, postToResponse(&posts[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	post, err := h.content.CreatePost(r.Context(), auth.FromContext(r.Context()), content.PostInput{
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Status:        corecontent.Status(req.Status),
		Password:      req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, postToResponse(post))
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post))
}

func (h *Handler) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	patch := content.PostPatch{
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Password:      req.Password,
	}
	if req.Status != nil {
		status := corecontent.Status(*req.Status)
		patch.Status = &status
	}

	post, err := h.content.UpdatePost(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post))
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeletePost(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handler) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	published, err := h.decodePublish(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	post, err := h.content.SetPostPublished(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), published)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, postToResponse(post))
}

// =============================================================================
// Page Handlers
// =============================================================================

func (h *Handler) handleListPages(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	status := corecontent.Status(r.URL.Query().Get("status"))

	pages, err := h.content.ListPages(r.Context(), auth.FromContext(r.Context()), status, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := ListPagesResponse{
		Pages:  make([]PageResponse, 0, len(pages)),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range pages {
		resp.Pages = append(resp.Pages, pageToResponse(&pages[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	page, err := h.content.CreatePage(r.Context(), auth.FromContext(r.Context()), content.PageInput{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		ShowInNav: req.ShowInNav,
		NavOrder:  req.NavOrder,
		Status:    corecontent.Status(req.Status),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, pageToResponse(page))
}

func (h *Handler) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.GetPage(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pageToResponse(page))
}

func (h *Handler) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var req UpdatePageRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	patch := content.PagePatch{
		Title:     req.Title,
		Slug:      req.Slug,
		Content:   req.Content,
		ShowInNav: req.ShowInNav,
		NavOrder:  req.NavOrder,
	}
	if req.Status != nil {
		status := corecontent.Status(*req.Status)
		patch.Status = &status
	}

	page, err := h.content.UpdatePage(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pageToResponse(page))
}

func (h *Handler) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeletePage(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handler) handlePublishPage(w http.ResponseWriter, r *http.Request) {
	published, err := h.decodePublish(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	page, err := h.content.SetPagePublished(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), published)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pageToResponse(page))
}

// =============================================================================
// Helpers
// =============================================================================

// decodePublish reads an optional PublishRequest. An empty body publishes.
func (h *Handler) decodePublish(r *http.Request) (bool, error) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return false, &ValidationError{Fields: []FieldError{{Path: "body", Message: "must be valid JSON"}}}
	}
	if req.Published == nil {
		return true, nil
	}
	return *req.Published, nil
}

func postToResponse(p *corecontent.Post) PostResponse {
	return PostResponse{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		Status:        string(p.Status),
		Protected:     p.IsProtected(),
		PublishedAt:   p.PublishedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func pageToResponse(p *corecontent.Page) PageResponse {
	return PageResponse{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Content:   p.Content,
		ShowInNav: p.ShowInNav,
		NavOrder:  p.NavOrder,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
