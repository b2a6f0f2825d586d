package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListTaxProviders(c *gin.Context) {
	names := s.registry.Names()
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"data": names})
}

func (s *Server) TaxProviderHealth(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	provider, err := s.registry.Get(name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := provider.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": status})
}
