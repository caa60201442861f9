package handler

import (
	"net/http"
	"strconv"

	"oms/internal/domain/model"
	"oms/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /ordersのHTTP
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderListResponse struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/orders", h.list)
	e.GET("/orders/confirmation", h.confirmation)
}

func (h *OrderHandler) list(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		offset = o
	}

	items, total, err := h.uc.ListOrders(c.Request().Context(), c.QueryParam("userId"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderListResponse{Items: items, Total: total})
}

// 注文確認。orderId指定が無ければ直近の注文控えにフォールバック。
func (h *OrderHandler) confirmation(c echo.Context) error {
	order, err := h.uc.GetConfirmation(c.Request().Context(), c.QueryParam("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
