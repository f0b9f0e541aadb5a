package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	h "github.com/biendoubrian23/YENDI-sub000/internal/http/handlers"
	"github.com/biendoubrian23/YENDI-sub000/internal/http/middleware"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

func NewRouter(env intconfig.Env, hd *h.Handler, m *metrics.Collector) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(m), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"success": false,
			"error":   "route not found",
			"code":    "not_found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)

		// Traveler side
		trips := api.Group("/trips")
		trips.GET("/:id/quote", hd.Quote)
		trips.GET("/:id/seat-map", hd.SeatMap)

		bookings := api.Group("/bookings")
		bookings.POST("", hd.CreateBooking)
		bookings.GET("/:id", hd.GetBooking)

		reservations := api.Group("/reservations")
		reservations.GET("/:id/cancellation-preview", hd.CancellationPreview)
		reservations.POST("/:id/cancel", hd.CancelReservation)

		api.GET("/refund-balances/:phone", hd.RefundBalance)

		// Agency side
		auth := middleware.AuthRequired([]byte(env.JWTSecret))
		staff := middleware.RequireRoles(middleware.RoleAgency, middleware.RoleAdmin)

		api.POST("/bookings/:id/confirm", auth,
			middleware.RequireRoles(middleware.RoleAgency, middleware.RoleAdmin, middleware.RolePayment), hd.ConfirmBooking)

		agencies := api.Group("/agencies", auth, staff)
		agencies.GET("/:id/pricing-config", hd.GetPricingConfig)
		agencies.PATCH("/:id/pricing-config", hd.PatchPricingConfig)

		agency := api.Group("/agency", auth, staff)
		agency.POST("/reservations/:id/cancel", hd.CancelReservation)
		agency.POST("/trips/:id/cancel", hd.CancelTrip)
	}

	return r
}
