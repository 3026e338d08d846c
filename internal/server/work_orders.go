package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

func (s *Server) CreateWorkOrder(c *gin.Context) {
	var req domain.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}

	resp, err := s.workOrderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, http.StatusCreated, resp)
}

func (s *Server) ListWorkOrders(c *gin.Context) {
	var req domain.ListWorkOrderRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError("query"))
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	req.VendorName = strings.TrimSpace(req.VendorName)

	resp, err := s.workOrderSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, resp)
}

func (s *Server) GetWorkOrder(c *gin.Context) {
	resp, err := s.workOrderSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, resp)
}

func (s *Server) PublishWorkOrder(c *gin.Context) {
	resp, err := s.workOrderSvc.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, resp)
}

func (s *Server) DeleteWorkOrder(c *gin.Context) {
	if err := s.workOrderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) ListPayments(c *gin.Context) {
	resp, err := s.workOrderSvc.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, resp)
}

func (s *Server) ListVendorWorkOrders(c *gin.Context) {
	resp, err := s.workOrderSvc.ListByVendor(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, resp)
}
