package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	tabledomain "github.com/smallbiznis/mesa/internal/table/domain"
)

type createTableRequest struct {
	Number                    int     `json:"number"`
	MaintenanceThresholdHours float64 `json:"maintenance_threshold_hours"`
}

func (s *Server) CreateTable(c *gin.Context) {
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	row := &tabledomain.Table{
		Number:                    req.Number,
		Status:                    tabledomain.StatusAvailable,
		MaintenanceThresholdHours: req.MaintenanceThresholdHours,
	}
	if err := s.tableSvc.Create(c.Request.Context(), row); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (s *Server) ListTables(c *gin.Context) {
	rows, err := s.tableSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) GetTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	row, err := s.tableSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

type startSessionRequest struct {
	MemberID string `json:"member_id,omitempty"`
}

func (s *Server) StartSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	var memberID *snowflake.ID
	if req.MemberID != "" {
		parsed, err := snowflake.ParseString(req.MemberID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		memberID = &parsed
	}

	resp, err := s.tableSvc.StartSession(c.Request.Context(), id, tabledomain.StartRequest{
		MemberID: memberID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type stopSessionRequest struct {
	IssueDocument bool   `json:"issue_document"`
	DocType       string `json:"doc_type,omitempty"`
	Receiver      string `json:"receiver,omitempty"`
}

func (s *Server) StopSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req stopSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	resp, err := s.tableSvc.StopSession(c.Request.Context(), id, tabledomain.StopRequest{
		IssueDocument: req.IssueDocument,
		DocType:       req.DocType,
		Receiver:      req.Receiver,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeferPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req stopSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	resp, err := s.tableSvc.DeferPayment(c.Request.Context(), id, tabledomain.StopRequest{
		IssueDocument: req.IssueDocument,
		DocType:       req.DocType,
		Receiver:      req.Receiver,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinishCleaning(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	row, err := s.tableSvc.FinishCleaning(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}
