package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

func (s *Server) UpdatePayment(c *gin.Context) {
	var req domain.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError("body"))
		return
	}
	req.PaymentID = c.Param("id")

	resp, err := s.workOrderSvc.UpdatePaymentStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, resp)
}
