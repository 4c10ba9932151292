package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"todobackend/internal/config"
	v1 "todobackend/internal/delivery/http/v1"
	"todobackend/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown endpoint"})
	})
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	todoService := services.NewTodoService(globalLogger, globalStorage, globalCache, globalPublisher)
	statusService := services.NewStatusService(globalLogger, globalStorage, globalCache, globalPublisher)
	v1Handler := v1.New(globalLogger, todoService, statusService)

	router.Use(v1Handler.HandleRequestID)

	router.GET("/healthz", v1Handler.HandleHealth)

	todosRouter := router.Group("/todos")
	todosRouter.GET("", v1Handler.HandleGetTodos)
	todosRouter.GET("/status", v1Handler.HandleStatus)
	todosRouter.GET("/:id", v1Handler.HandleGetTodo)
	todosRouter.POST("", v1Handler.HandleCreateTodo)
	todosRouter.PUT("/:id", v1Handler.HandleMarkTodoDone)
	todosRouter.DELETE("/:id", v1Handler.HandleDeleteTodo)
}
