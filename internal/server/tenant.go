package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/smallbiznis/mesa/internal/tenant/domain"
)

type createTenantRequest struct {
	Name           string  `json:"name"`
	HourlyRate     float64 `json:"hourly_rate"`
	TaxRatePercent float64 `json:"tax_rate_percent"`
	TaxName        string  `json:"tax_name"`
	TaxExempt      bool    `json:"tax_exempt"`
	Currency       string  `json:"currency"`
}

func (s *Server) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	row := &tenantdomain.Tenant{
		Name:           strings.TrimSpace(req.Name),
		HourlyRate:     req.HourlyRate,
		TaxRatePercent: req.TaxRatePercent,
		TaxName:        strings.TrimSpace(req.TaxName),
		TaxExempt:      req.TaxExempt,
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if err := s.tenantSvc.Create(c.Request.Context(), row); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (s *Server) ListTenants(c *gin.Context) {
	rows, err := s.tenantSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) GetTenant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	row, err := s.tenantSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

type updateTenantRequest struct {
	Name           *string  `json:"name,omitempty"`
	HourlyRate     *float64 `json:"hourly_rate,omitempty"`
	TaxRatePercent *float64 `json:"tax_rate_percent,omitempty"`
	TaxName        *string  `json:"tax_name,omitempty"`
	TaxExempt      *bool    `json:"tax_exempt,omitempty"`
	Currency       *string  `json:"currency,omitempty"`
}

func (s *Server) UpdateTenant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	values := map[string]any{}
	if req.Name != nil {
		values["name"] = strings.TrimSpace(*req.Name)
	}
	if req.HourlyRate != nil {
		values["hourly_rate"] = *req.HourlyRate
	}
	if req.TaxRatePercent != nil {
		values["tax_rate_percent"] = *req.TaxRatePercent
	}
	if req.TaxName != nil {
		values["tax_name"] = strings.TrimSpace(*req.TaxName)
	}
	if req.TaxExempt != nil {
		values["tax_exempt"] = *req.TaxExempt
	}
	if req.Currency != nil {
		values["currency"] = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}

	row, err := s.tenantSvc.Update(c.Request.Context(), id, values)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}
