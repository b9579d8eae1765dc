package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) RunSweep(c *gin.Context) {
	report, err := s.auditorSvc.Sweep(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
