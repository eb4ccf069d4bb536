package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

type orderResponse struct {
	Order   *domain.Order   `json:"order"`
	Payment *domain.Payment `json:"payment,omitempty"`
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func checkoutHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Checkout(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, orderResponse{Order: order})
	}
}

func payOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, payment, err := svc.SettlePayment(c.Request.Context(), c.Param("id"), callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse{Order: order, Payment: payment})
	}
}

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		orders, total, err := svc.ListByUser(c.Request.Context(), callerID(c), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pagedResponse{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			Results: orders,
		})
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, payment, err := svc.Get(c.Request.Context(), c.Param("id"), callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse{Order: order, Payment: payment})
	}
}

func orderStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := svc.Status(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orderId": c.Param("id"), "status": status})
	}
}

func updateOrderStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in orderStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(in.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse{Order: order})
	}
}
