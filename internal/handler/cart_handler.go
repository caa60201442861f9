package handler

import (
	"net/http"

	"oms/internal/entitystore"
	"oms/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /cartのHTTP
type CartHandler struct {
	uc      *usecase.CartUsecase
	catalog usecase.ProductCatalog
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, catalog usecase.ProductCatalog) *CartHandler {
	return &CartHandler{uc: uc, catalog: catalog}
}

type AddItemRequest struct {
	SKU string `json:"sku"`
	Qty int64  `json:"qty"`
}

type UpdateQtyRequest struct {
	Qty int64 `json:"qty"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:sku", h.updateQty)
	g.DELETE("/items/:sku", h.removeItem)
	g.POST("/checkout/open", h.openCheckout)
	g.POST("/checkout/cancel", h.cancelCheckout)
}

// カート取得（無ければNEWの空カートを作って返す）
func (h *CartHandler) getCart(c echo.Context) error {
	cart, ok := h.uc.GetCart(c.Request().Context())
	if !ok {
		cart = h.uc.CreateCart(c.Request().Context())
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.SKU == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid sku"})
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	// 商品はストア側が正。最新価格で明細を付け直す。
	p, err := h.catalog.Get(c.Request().Context(), req.SKU)
	if entitystore.IsNotFound(err) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid sku"})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "entity store error"})
	}

	cart, err := h.uc.AddItem(c.Request().Context(), p, req.Qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) updateQty(c echo.Context) error {
	sku := c.Param("sku")
	if sku == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid sku"})
	}

	var req UpdateQtyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	cart, err := h.uc.UpdateQty(c.Request().Context(), sku, req.Qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	sku := c.Param("sku")
	if sku == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid sku"})
	}

	cart, err := h.uc.RemoveItem(c.Request().Context(), sku)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) openCheckout(c echo.Context) error {
	cart, err := h.uc.OpenCheckout(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) cancelCheckout(c echo.Context) error {
	cart, err := h.uc.CancelCheckout(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}
