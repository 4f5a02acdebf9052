package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/api/metrics"
	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

// BlogHandler serves the post endpoints. Listing and reading are public.
type BlogHandler struct {
	blog ports.BlogService
}

func NewBlogHandler(blog ports.BlogService) *BlogHandler {
	return &BlogHandler{blog: blog}
}

// List returns the most recent posts.
//
// @Summary      List posts
// @Tags         blog
// @Produce      json
// @Param        limit    query     int     false  "Maximum number of posts (default 4, max 100)"
// @Param        orderby  query     string  false  "Sort field, descending"  Enums(created_at, title)
// @Success      200      {array}   domain.Post
// @Failure      400      {object}  errorResponse
// @Router       /blog [get]
func (h *BlogHandler) List(c echo.Context) error {
	var q listPostsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	posts, err := h.blog.List(c.Request().Context(), ports.ListPostsInput{Limit: q.Limit, OrderBy: q.OrderBy})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Get returns a single post.
//
// @Summary      Get post
// @Tags         blog
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Post
// @Failure      404  {object}  errorResponse
// @Router       /blog/{id} [get]
func (h *BlogHandler) Get(c echo.Context) error {
	post, err := h.blog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Create publishes a post authored by the caller.
//
// @Summary      Create post
// @Tags         blog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post"
// @Success      201   {object}  domain.Post
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /blog [post]
func (h *BlogHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.blog.Create(c.Request().Context(), caller, ports.CreatePostInput{Title: req.Title, Body: req.Body})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// Update patches a post owned by the caller.
//
// @Summary      Update post
// @Tags         blog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Post ID"
// @Param        body  body      updatePostRequest  true  "Fields to change"
// @Success      200   {object}  domain.Post
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /blog/{id} [put]
func (h *BlogHandler) Update(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.blog.Update(c.Request().Context(), caller, c.Param("id"), domain.PostPatch{Title: req.Title, Body: req.Body})
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.OwnershipDenialsTotal.WithLabelValues("update").Inc()
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete removes a post owned by the caller.
//
// @Summary      Delete post
// @Tags         blog
// @Security     BearerAuth
// @Param        id   path  string  true  "Post ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /blog/{id} [delete]
func (h *BlogHandler) Delete(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.blog.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			metrics.OwnershipDenialsTotal.WithLabelValues("delete").Inc()
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
