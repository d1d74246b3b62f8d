/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// uploadDocumentCmd represents the upload-document command
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Ingest a local PDF into the vector index",
	Long: `Parses, chunks and embeds a local PDF file and stores the vectors
under a freshly minted namespace. Prints the namespace to use in queries.`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		source, _ := cmd.Flags().GetString("source")
		reinit, _ := cmd.Flags().GetBool("reinit")
		if filePath == "" {
			log.Fatal().Msg("missing --file")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}

		store, err := newVectorStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to vector store")
		}
		if reinit {
			weaviateStore, ok := store.(*database.WeaviateStore)
			if !ok {
				log.Fatal().Msg("--reinit only applies to the weaviate store")
			}
			if err := weaviateStore.ReInit(); err != nil {
				log.Fatal().Err(err).Msg("failed to reinitialize index")
			}
		}

		embedder, err := newEmbedder(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create embedder")
		}
		chunker, err := service.NewChunker(types.ChunkerConfig{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid chunking config")
		}

		ingestService, err := service.NewIngestService(cfg.UploadDir, service.NewPDFService(), chunker, embedder, store, nil, cfg.StageTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create ingest service")
		}

		result, err := ingestService.IngestFile(context.Background(), filePath, types.UploadMetadata{
			Title:  utils.FileNameWithoutExt(filePath),
			Source: source,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("ingestion failed")
		}
		fmt.Printf("namespace: %s\nchunks: %d\npages: %d\n", result.Namespace, result.ChunkCount, result.PageCount)
	},
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)

	uploadDocumentCmd.Flags().StringP("file", "f", "", "Path to the PDF file to ingest")
	uploadDocumentCmd.Flags().StringP("source", "s", "", "Source label stored with the chunks")
	uploadDocumentCmd.Flags().BoolP("reinit", "r", false, "Drop and recreate the index before ingesting")
}
