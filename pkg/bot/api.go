package bot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/service"
)

// RideOfferer delivers a backend ride offer to the driver's chat.
type RideOfferer interface {
	OfferRide(ctx context.Context, ride models.RideRequest) error
}

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func NewRouter(offers RideOfferer, gatherer prometheus.Gatherer, log logger.ILogger, checks ...HealthCheck) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		failed := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(c.Request.Context()); err != nil {
				failed[hc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.POST("/ride-requests", func(c *gin.Context) {
			var ride models.RideRequest
			if err := c.ShouldBindJSON(&ride); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ride.BookingID == "" || ride.DriverID <= 0 || ride.OTP == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bookingId, driverId and otp are required"})
				return
			}

			err := offers.OfferRide(c.Request.Context(), ride)
			switch {
			case errors.Is(err, service.ErrNotRegistered):
				c.JSON(http.StatusNotFound, gin.H{"error": "driver is not connected to the bot"})
				return
			case err != nil:
				log.Error("error while offering ride", logger.String("booking_id", ride.BookingID), logger.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "could not reach the driver"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"status": "offered"})
		})
	}

	return r
}

// RunServer serves h on addr until ctx is cancelled.
func RunServer(ctx context.Context, addr string, h http.Handler, log logger.ILogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
