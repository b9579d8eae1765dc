package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	shiftdomain "github.com/smallbiznis/mesa/internal/shift/domain"
	"github.com/smallbiznis/mesa/pkg/db/pagination"
)

type closeShiftRequest struct {
	CashInHand float64 `json:"cash_in_hand"`
	Notes      string  `json:"notes,omitempty"`
	ClosedBy   string  `json:"closed_by"`
}

func (s *Server) CloseShift(c *gin.Context) {
	var req closeShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.shiftSvc.Close(c.Request.Context(), shiftdomain.CloseRequest{
		CashInHand: req.CashInHand,
		Notes:      strings.TrimSpace(req.Notes),
		ClosedBy:   strings.TrimSpace(req.ClosedBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetShift(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	row, err := s.shiftSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (s *Server) ListShifts(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	rows, nextToken, err := s.shiftSvc.List(c.Request.Context(), query.PageToken, query.PageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":            rows,
		"next_page_token": nextToken,
	})
}

func (s *Server) VerifyShift(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := s.shiftSvc.Verify(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
