package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "github.com/biendoubrian23/YENDI-sub000/internal/config"
	intdb "github.com/biendoubrian23/YENDI-sub000/internal/db"
	"github.com/biendoubrian23/YENDI-sub000/internal/events"
	router "github.com/biendoubrian23/YENDI-sub000/internal/http"
	"github.com/biendoubrian23/YENDI-sub000/internal/http/handlers"
	"github.com/biendoubrian23/YENDI-sub000/internal/metrics"
	"github.com/biendoubrian23/YENDI-sub000/internal/repositories"
	"github.com/biendoubrian23/YENDI-sub000/internal/services"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

// stores bundles the storage contracts the services consume.
type stores struct {
	trips     services.TripStore
	inventory services.InventoryStore
	bookings  services.BookingStore
	refunds   services.RefundStore
	configs   services.PricingConfigStore
	locks     services.PriceLockStore
	ping      func(*gin.Context) error
}

func main() {
	env := intconfig.LoadEnv()
	log := utils.InitLogger(env.AppEnv)
	defer func() { _ = log.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	} else if env.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	if env.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, agency routes will reject every token")
	}

	m := metrics.New()
	st, cleanup, err := openStores(env, log)
	if err != nil {
		log.Fatal("storage init failed", zap.String("driver", env.StoreDriver), zap.Error(err))
	}
	defer cleanup()

	var pub events.Publisher = events.Nop{}
	if env.NATSURL != "" {
		np, err := events.NewNATSPublisher(env.NATSURL, "bus", log)
		if err != nil {
			log.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			defer np.Close()
			pub = np
		}
	}

	pricer := services.PriceLockService{
		Trips:     st.trips,
		Inventory: st.inventory,
		Configs:   st.configs,
		Locks:     st.locks,
		Metrics:   m,
	}
	h := &handlers.Handler{
		Pricing: pricer,
		Bookings: services.BookingService{
			Trips:    st.trips,
			Bookings: st.bookings,
			Pricing:  pricer,
			Events:   pub,
			Metrics:  m,
		},
		Cancellations: services.CancellationService{
			Trips:     st.trips,
			Inventory: st.inventory,
			Refunds:   st.refunds,
			Events:    pub,
			Metrics:   m,
		},
		Configs:     services.PricingConfigService{Configs: st.configs},
		SeatMaps:    services.SeatMapService{Trips: st.trips, Inventory: st.inventory, Pricing: pricer},
		Ping:        st.ping,
		StoreDriver: env.StoreDriver,
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, h, m),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", env.AppAddr), zap.String("store", env.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

func openStores(env intconfig.Env, log *zap.Logger) (stores, func(), error) {
	if env.StoreDriver == intconfig.StoreMemory {
		mem := repositories.NewMemoryStore()
		if err := seedDemo(context.Background(), mem, time.Now()); err != nil {
			return stores{}, nil, err
		}
		log.Warn("using in-memory store, data is lost on restart")
		return stores{
			trips: mem, inventory: mem, bookings: mem, refunds: mem, configs: mem, locks: mem,
			ping: func(*gin.Context) error { return nil },
		}, func() {}, nil
	}

	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		return stores{}, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if env.DBMigrate {
		if err := intdb.Migrate(ctx, db, log); err != nil {
			intconfig.CloseDB()
			return stores{}, nil, err
		}
	}

	sqlStore := repositories.NewSQLStore(db)
	lockRepo := repositories.PriceLockRepo{DB: db}
	st := stores{
		trips: sqlStore, inventory: sqlStore, bookings: sqlStore, refunds: sqlStore, configs: sqlStore,
		locks: lockRepo,
		ping: func(c *gin.Context) error {
			if err := db.PingContext(c.Request.Context()); err != nil {
				return err
			}
			if !intdb.HasTable(c.Request.Context(), db, "seat_reservations") {
				return errors.New("schema not migrated")
			}
			return nil
		},
	}
	cleanup := func() { intconfig.CloseDB() }

	// expired locks are only purged at startup; reads never trust them
	if n, err := lockRepo.DeleteExpiredBefore(ctx, time.Now().Add(-env.PriceLockRetention)); err != nil {
		log.Warn("price lock purge failed", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired price locks", zap.Int64("rows", n))
	}

	rdb, err := intconfig.ConnectRedis(env)
	switch {
	case err != nil:
		log.Warn("redis unavailable, price locks stay in mysql", zap.Error(err))
	case rdb != nil:
		st.locks = repositories.RedisPriceLockStore{Client: rdb, Retention: env.PriceLockRetention}
		cleanup = func() {
			_ = rdb.Close()
			intconfig.CloseDB()
		}
		log.Info("price locks stored in redis", zap.String("addr", env.RedisAddr))
	}
	return st, cleanup, nil
}
