package service

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/logging"
	dto "gitlab.com/dirk.krummacker/address-book-service/pkg/model"
)

// RouterOptions control the middleware of the HTTP router.
type RouterOptions struct {
	// Logging enables the request log.
	Logging bool
	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter(s *Service, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Logging {
		router.Use(logging.Middleware(s.log))
	} else {
		s.log.Info("Turning off HTTP request logging")
	}
	if opts.Metrics {
		p := ginprometheus.NewPrometheus("addressbook")
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			return c.FullPath()
		}
		p.Use(router)
	}

	addresses := router.Group("/api/addresses")
	addresses.GET("", s.getAllAddresses)
	addresses.POST("", s.createAddress)
	addresses.GET("/search", s.searchByName)
	addresses.GET("/city/:city", s.getAddressesByCity)
	addresses.GET("/:id", s.getAddressByID)
	addresses.PUT("/:id", s.updateAddress)
	addresses.DELETE("/:id", s.deleteAddress)
	return router
}

// getAllAddresses responds with the list of all addresses as JSON.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses
func (s *Service) getAllAddresses(c *gin.Context) {
	addresses, err := s.GetAllAddresses(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, addresses)
}

// getAddressByID locates the address whose ID value matches the id parameter of the request URL,
// then returns that address as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses/56
func (s *Service) getAddressByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	address, found, err := s.GetAddressByID(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if !found {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.IndentedJSON(http.StatusOK, address)
}

// createAddress inserts the address specified in the request's JSON into the database. It
// responds with the full address including the newly assigned id. Fields that are not specified
// are stored as empty strings.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "phone": "0815", "city": "Berlin"}'
func (s *Service) createAddress(c *gin.Context) {
	var submitted dto.Address
	if err := c.ShouldBindJSON(&submitted); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	created, err := s.CreateAddress(c.Request.Context(), submitted)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// updateAddress replaces all values of the address whose ID value matches the id parameter of the
// request URL with the values of the JSON, and responds with the new version of the address.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "phone": "81970"}'
func (s *Service) updateAddress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var submitted dto.Address
	if err := c.ShouldBindJSON(&submitted); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	updated, found, err := s.UpdateAddress(c.Request.Context(), id, submitted)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if !found {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteAddress deletes the address whose ID value matches the id parameter of the request URL
// from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses/56 --request "DELETE"
func (s *Service) deleteAddress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := s.DeleteAddress(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if !deleted {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// searchByName responds with all addresses whose name contains the 'name' URL parameter, ignoring
// case.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/api/addresses/search?name=ali"
func (s *Service) searchByName(c *gin.Context) {
	name, ok := c.GetQuery("name")
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing name parameter"})
		return
	}
	addresses, err := s.SearchByName(c.Request.Context(), name)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, addresses)
}

// getAddressesByCity responds with all addresses whose city equals the city parameter of the
// request URL.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/addresses/city/Springfield
func (s *Service) getAddressesByCity(c *gin.Context) {
	addresses, err := s.GetAddressesByCity(c.Request.Context(), c.Param("city"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, addresses)
}

// parseID reads the id parameter of the request URL. If it is not a number the request is
// answered with BAD REQUEST.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// abortWithError answers a request that failed on the storage with INTERNAL SERVER ERROR.
func (s *Service) abortWithError(c *gin.Context, err error) {
	s.log.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.AbortWithStatus(http.StatusInternalServerError)
}
