package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/api"
	"github.com/RoyceAzure/lab/marketplace/internal/api/handler"
	"github.com/RoyceAzure/lab/marketplace/internal/api/router"
	"github.com/RoyceAzure/lab/marketplace/internal/appcontext"
	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"golang.org/x/sync/errgroup"
)

// @title marketplace
// @version 1.0
// @description 二手商品交易平台: 商品, 購物車, 訂單

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @description                 Description for Authorization header: Type "Bearer" followed by a space and the token. Example: "Bearer {token}"

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal(err)
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewUserHandler(app.UserService, app.Storage),
		handler.NewPostHandler(app.PostService, app.Storage),
		handler.NewCartHandler(app.CartService, app.Storage),
		handler.NewOrderHandler(app.OrderService, app.Storage),
	)

	// 設置路由
	r := router.SetupRouter(server, app.TokenMaker, app.Logger, router.Options{
		Limiter:   app.Limiter,
		Metrics:   app.Metrics,
		MediaRoot: app.Storage.Root(),
		MediaURL:  app.Cf.MediaURL,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// 啟動服務
	g.Go(func() error {
		app.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 監聽退出訊號, server 異常結束時也會走到這裡
	g.Go(func() error {
		<-gCtx.Done()
		app.Logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Server shutdown error")
		}
		return app.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Fatal().Err(err).Msg("server exited with error")
	}
	app.Logger.Info().Msg("closed completed")
}
