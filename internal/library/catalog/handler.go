package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes は /api/maintenance 配下（管理者のみ）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/book/add", h.AddCopy)
	r.POST("/book/allocate", h.Allocate)
	r.POST("/book/update", h.UpdateCopy)
	r.GET("/book/labels", h.Labels)
	r.GET("/book/:serial_no", h.GetCopy)
}

// RegisterSearchRoutes は /api/transactions 配下
func RegisterSearchRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/availability", h.Availability)
}

func (h *Handler) AddCopy(c *gin.Context) {
	var req AddCopyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.AddCopy(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Header("Location", "/api/maintenance/book/"+res.SerialNo)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.AllocateSerials(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetCopy(c *gin.Context) {
	res, err := h.svc.GetCopy(c.Request.Context(), c.Param("serial_no"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateCopy(c *gin.Context) {
	var req UpdateCopyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid form"))
		return
	}
	res, err := h.svc.UpdateCopy(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Availability(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid query"))
		return
	}
	res, err := h.svc.SearchAvailable(c.Request.Context(), q)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Labels(c *gin.Context) {
	var q LabelsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidInput, "invalid query"))
		return
	}
	f, err := h.svc.Labels(c.Request.Context(), q)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="labels.csv"`)
	c.Data(http.StatusOK, f.ContentType, f.Body)
}
