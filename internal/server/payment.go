package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/mesa/internal/payment/domain"
)

type registerPaymentRequest struct {
	UsageLogID  string         `json:"usage_log_id"`
	Amount      float64        `json:"amount"`
	Method      string         `json:"method"`
	ProviderRef string         `json:"provider_ref,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (s *Server) RegisterPayment(c *gin.Context) {
	var req registerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	logID, err := snowflake.ParseString(req.UsageLogID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.paymentSvc.Register(c.Request.Context(), paymentdomain.RegisterRequest{
		UsageLogID:  logID,
		Amount:      req.Amount,
		Method:      paymentdomain.Method(strings.ToUpper(strings.TrimSpace(req.Method))),
		ProviderRef: strings.TrimSpace(req.ProviderRef),
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
