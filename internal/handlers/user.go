package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	dom "github.com/ray-SDJ/comparison/internal/domain"
	"github.com/ray-SDJ/comparison/internal/dto"

	"github.com/gin-gonic/gin"
)

// UserService is what UserHandler needs from the service layer.
type UserService interface {
	GetAllUsers(ctx context.Context) ([]dom.User, error)
	GetUserByID(ctx context.Context, id int64) (dom.User, error)
	CreateUser(ctx context.Context, u dom.User) (dom.User, error)
	UpdateUser(ctx context.Context, id int64, details dom.User) (dom.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {array}   dto.UserResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.GetAllUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UsersToResponses(list))
}

// GetByID godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserToResponse(u))
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.UserRequest  true  "User body"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	in, ok := bindUser(c)
	if !ok {
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.UserToResponse(u))
}

// Update godoc
// @Summary      Replace a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "User ID"
// @Param        body  body      dto.UserRequest  true  "User body"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in, ok := bindUser(c)
	if !ok {
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserToResponse(u))
}

// Delete godoc
// @Summary      Delete a user
// @Tags         users
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterUserRoutes mounts the user resource under api.
func RegisterUserRoutes(api *gin.RouterGroup, h *UserHandler) {
	api.GET("/users", h.List)
	api.POST("/users", h.Create)
	api.GET("/users/:id", h.GetByID)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
}

// parseID reads an integer path parameter. Non-positive values are passed
// through; the service answers them with not found.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

func bindUser(c *gin.Context) (dom.User, bool) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", dom.ErrDecode, err))
		return dom.User{}, false
	}
	u, err := dto.DecodeUser(body)
	if err != nil {
		writeError(c, err)
		return dom.User{}, false
	}
	return u, true
}

// writeError is the single place where error kinds become status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dom.ErrDecode), errors.Is(err, dom.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, dom.ErrDuplicate):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email already exists"})
	case errors.Is(err, dom.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
	default:
		_ = c.Error(err)
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
