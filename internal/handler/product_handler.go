package handler

import (
	"net/http"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

type ProductResponse struct {
	Message string        `json:"message"`
	Product model.Product `json:"product"`
}

// 一覧・詳細は公開、更新系はauthが必要
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, auth ...echo.MiddlewareFunc) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)

	e.POST("/products", h.create, auth...)
	e.PUT("/products/:id", h.update, auth...)
	e.DELETE("/products/:id", h.delete, auth...)
	e.POST("/products/:id/restore", h.restore, auth...)
	e.DELETE("/products/:id/force", h.forceDelete, auth...)
}

// GET /products?filter[name]=x&sort=-price&page=2&per_page=10
func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParams())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req usecase.ProductInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ProductResponse{Message: "Product created successfully", Product: p})
}

func (h *ProductHandler) update(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.ProductInput
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProductResponse{Message: "Product updated successfully", Product: p})
}

// 論理削除
func (h *ProductHandler) delete(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.SoftDelete(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProductResponse{Message: "Product deleted successfully", Product: p})
}

func (h *ProductHandler) restore(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.Restore(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProductResponse{Message: "Product restored successfully", Product: p})
}

// 物理削除
func (h *ProductHandler) forceDelete(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Purge(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Product permanently deleted"})
}
