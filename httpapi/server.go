// Package httpapi exposes the catalog and reservation operations over a REST
// surface. It is a thin boundary: identity arrives pre-authenticated in
// headers, request payloads are validated by binding tags, and domain errors
// are translated to transport status codes in one place.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/reservation"
)

// Identity and role headers. Authentication and token verification happen
// upstream; this layer only consumes the extracted identity.
const (
	headerRequesterID   = "X-Requester-ID"
	headerRequesterRole = "X-Requester-Role"
	roleAdmin           = "admin"
)

const contextKeyRequesterID = "requesterID"

// Server wires the coordinator, the catalog service, and the audit
// collaborators into a gin router.
type Server struct {
	coordinator    *reservation.Coordinator
	catalog        *catalog.Service
	lister         reservation.CatalogLister
	ledger         reservation.ReservationRepository
	logger         reservation.Logger
	metricsHandler http.Handler
}

// Option defines a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the logger for request-level warnings and errors.
func WithLogger(logger reservation.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts the given handler at GET /metrics,
// typically promhttp.Handler().
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = handler
	}
}

// NewServer creates a Server. The lister and ledger are the collaborators of
// the consistency audit; with the storage engines they are the same value as
// the coordinator's repositories.
func NewServer(
	coordinator *reservation.Coordinator,
	catalogService *catalog.Service,
	lister reservation.CatalogLister,
	ledger reservation.ReservationRepository,
	options ...Option,
) *Server {

	s := &Server{
		coordinator: coordinator,
		catalog:     catalogService,
		lister:      lister,
		ledger:      ledger,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")

	api.GET("/items", s.handleListItems)
	api.GET("/items/:itemID", s.handleGetItem)
	api.POST("/items", s.requireAdmin(), s.handleAddItem)
	api.DELETE("/items/:itemID", s.requireAdmin(), s.handleRemoveItem)

	holds := api.Group("/reservations", s.requireRequester())
	holds.GET("", s.handleListReservations)
	holds.POST("", s.handleReserve)
	holds.DELETE("/:reservationID", s.handleCancel)

	api.GET("/admin/consistency", s.requireAdmin(), s.handleConsistencyAudit)

	if s.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	return router
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, err error, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append([]any{"error", err.Error()}, args...)...)
	}
}
