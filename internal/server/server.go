package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/handler"
	"github.com/rs-labo46/ec-backoffice/internal/middleware"
	"github.com/rs-labo46/ec-backoffice/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// ルーティングに必要なもの一式
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Address  *handler.AddressHandler
	System   *handler.SystemHandler
}

type Options struct {
	JWTSecret string
	Users     repository.UserRepository
	Logger    *log.Entry
}

// echoを組み立てる（起動はしない）
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(opts.Logger))

	auth := middleware.RequireAuth(opts.JWTSecret, opts.Users)

	if h.System != nil {
		h.System.RegisterRoutes(e)
	}
	if h.Auth != nil {
		h.Auth.RegisterRoutes(e, auth...)
	}
	if h.Products != nil {
		h.Products.RegisterRoutes(e, auth...)
	}
	if h.Orders != nil {
		h.Orders.RegisterRoutes(e, auth...)
	}
	if h.Address != nil {
		h.Address.RegisterRoutes(e, auth...)
	}
	return e
}

// ctxがキャンセルされるまでサーバーを動かし、graceful shutdownする
func Run(ctx context.Context, e *echo.Echo, addr string, logger *log.Entry) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("http server started")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return e.Shutdown(shutdownCtx)
}
