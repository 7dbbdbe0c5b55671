package main

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	bm25api "github.com/AleutianAI/bm25search/services/bm25search/api"
)

var servePort int

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bm25search HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, closeFn, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("bm25search"))
	router.Use(bm25api.RequestIDMiddleware())

	v1 := router.Group("/v1")
	bm25api.RegisterRoutes(v1, bm25api.NewHandlers(e, slog.Default()))

	addr := fmt.Sprintf(":%d", servePort)
	slog.Info("starting bm25search server", slog.String("address", addr))
	return router.Run(addr)
}
