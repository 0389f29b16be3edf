package reports

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes は /api/reports 配下
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/books", list(h.svc.Books))
	r.GET("/movies", list(h.svc.Movies))
	r.GET("/members", list(h.svc.Members))
	r.GET("/active-issues", list(h.svc.ActiveIssues))
	r.GET("/requests", list(h.svc.Requests))
	r.GET("/product-details", list(h.svc.ProductDetails))
	r.GET("/overdue", h.Overdue)
}

func list[T any](fn func(context.Context) (Results[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := fn(c.Request.Context())
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// GET /overdue?scope=returned|open|all
func (h *Handler) Overdue(c *gin.Context) {
	res, err := h.svc.Overdue(c.Request.Context(), c.Query("scope"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
