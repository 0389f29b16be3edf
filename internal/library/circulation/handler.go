package circulation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes は /api/transactions 配下
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/issue", h.Issue)
	r.POST("/return", h.InitiateReturn)
	r.POST("/fine", h.Settle)
	r.GET("/issues/:key", h.GetLoan)
}

// RegisterAdminRoutes は /api/maintenance 配下
func RegisterAdminRoutes(r gin.IRoutes, rec *Reconciler) {
	r.POST("/ledger/reconcile", func(c *gin.Context) {
		dry, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
		rep, err := rec.Run(c.Request.Context(), dry)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
	})
}

func (h *Handler) Issue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.IssueCopy(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Header("Location", "/api/transactions/issues/"+res.IssueULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) InitiateReturn(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.InitiateReturn(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Settle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.SettleReturn(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLoan(c *gin.Context) {
	res, err := h.svc.GetLoan(c.Request.Context(), c.Param("key"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
