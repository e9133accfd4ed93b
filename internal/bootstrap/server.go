package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avendar/flightdesk/api"
	"github.com/avendar/flightdesk/config"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/avendar/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	router := newRouter(cfg, flightSvc, bookingSvc)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.Default()

	api.NewFlightHandler(flightSvc).Register(router.Group("/flights"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewPaymentHandler(bookingSvc).Register(router.Group("/payments"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/flightdesk.swagger.json"),
		)))
	}

	return router
}
