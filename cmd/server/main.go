package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/rewearhq/rewear/internal/auth"
	"github.com/rewearhq/rewear/internal/clock"
	"github.com/rewearhq/rewear/internal/db"
	"github.com/rewearhq/rewear/internal/items"
	mware "github.com/rewearhq/rewear/internal/middleware"
	"github.com/rewearhq/rewear/internal/storage/postgres"
	"github.com/rewearhq/rewear/internal/swaps"
	"github.com/rewearhq/rewear/internal/verification"
	"github.com/rewearhq/rewear/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	clk := clock.NewSystem()

	walletRepo := postgres.NewWalletRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	swapRepo := postgres.NewSwapRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	gate := verification.NewGate(gateThreshold())
	verifier := verification.NewKeywordVerifier()

	walletSvc := wallet.NewService(walletRepo, clk)
	itemSvc := items.NewService(itemRepo, gate, clk)
	swapSvc := swaps.NewService(swapRepo, itemRepo, walletSvc, userRepo, clk)

	photoDir := os.Getenv("PHOTO_DIR")
	if photoDir == "" {
		photoDir = "uploads"
	}

	authHandler := auth.NewHandler(pool, []byte(secret), clk)
	walletHandler := wallet.NewHandler(walletSvc)
	itemHandler := items.NewHandler(itemSvc, verifier, items.DiskPhotoStore{Dir: photoDir})
	swapHandler := swaps.NewHandler(swapSvc)
	verifyHandler := verification.NewHandler(verifier, gate)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "rewear"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/bootstrap-admin", authHandler.BootstrapAdmin)

	e.Static("/photos", photoDir)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTAuth([]byte(secret)))

	api.GET("/auth/me", authHandler.Me)

	api.GET("/wallet/balance", walletHandler.Balance)
	api.GET("/wallet/transactions", walletHandler.Transactions)

	api.POST("/items", itemHandler.Create)
	api.GET("/items/mine", itemHandler.Mine)
	api.GET("/items/:id", itemHandler.Get)

	api.POST("/verification/image", verifyHandler.VerifyImage)
	api.POST("/verification/item", verifyHandler.VerifyItem)

	api.POST("/swaps", swapHandler.Create)
	api.PUT("/swaps/:id/accept", swapHandler.Accept)
	api.PUT("/swaps/:id/reject", swapHandler.Reject)
	api.GET("/swaps/my-requests", swapHandler.MyRequests)
	api.GET("/swaps/my-items", swapHandler.MyItems)
	api.GET("/swaps/history", swapHandler.History)

	// Admin routes
	admin := e.Group("/admin")
	admin.Use(mware.JWTAuth([]byte(secret)))
	admin.Use(mware.AdminGuard)

	admin.POST("/users/:id/points", walletHandler.AdminGrant)
	admin.GET("/transactions", walletHandler.AdminTransactions)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

// gateThreshold reads the verification confidence floor from the
// environment, keeping the default when unset or out of range.
func gateThreshold() int {
	raw := os.Getenv("MIN_VERIFICATION_CONFIDENCE")
	if raw == "" {
		return verification.DefaultMinConfidence
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid MIN_VERIFICATION_CONFIDENCE %q, using default", raw)
		return verification.DefaultMinConfidence
	}
	return n
}
