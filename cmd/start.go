/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/handler"
	"github.com/tieubaoca/docqa-be/middleware"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the document QA server",
	Long:  `Starts the HTTP server handling PDF uploads and questions`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}

		store, err := newVectorStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to vector store")
		}
		embedder, err := newEmbedder(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create embedder")
		}
		completer, err := newCompleter(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create completion client")
		}

		chunker, err := service.NewChunker(types.ChunkerConfig{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid chunking config")
		}
		pdfService := service.NewPDFService()

		var docRepo repository.DocumentRepo
		if cfg.MongoURI != "" {
			mongoClient, err := database.NewMongoClient(context.Background(), cfg.MongoURI)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to MongoDB")
			}
			docRepo = repository.NewDocumentRepo(mongoClient.Database("docqa").Collection("documents"))
		} else {
			log.Warn().Msg("MONGODB_URI not set, ingestion ledger disabled")
		}

		ingestService, err := service.NewIngestService(cfg.UploadDir, pdfService, chunker, embedder, store, docRepo, cfg.StageTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create ingest service")
		}
		queryService := service.NewQueryService(embedder, store, completer, cfg.TopK, cfg.StageTimeout)
		wsService := service.NewWebSocketService(queryService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		healthHandler := handler.NewHealthHandler()
		uploadHandler := handler.NewUploadHandler(ingestService, cfg.MaxUploadMB, cfg.DevMode)
		queryHandler := handler.NewQueryHandler(queryService, cfg.DevMode)

		if !cfg.DevMode {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(middleware.RequestLogger)
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		apiV1.GET("/health", healthHandler.HandleHealth)
		apiV1.POST("/upload/pdf", uploadHandler.HandleUploadPDF)
		apiV1.POST("/query", queryHandler.HandleQuery)
		apiV1.GET("/ws/query", func(c *gin.Context) {
			wsService.HandleQuery(c.Writer, c.Request)
		})

		if docRepo != nil {
			documentHandler := handler.NewDocumentHandler(docRepo, store)
			apiV1.GET("/documents", documentHandler.HandleListDocuments)
			apiV1.GET("/documents/:namespace", documentHandler.HandleGetDocument)
			apiV1.DELETE("/documents/:namespace", documentHandler.HandleDeleteDocument)
		}

		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
