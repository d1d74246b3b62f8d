/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// batchUploadDocumentCmd represents the batch-upload-document command
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload-document",
	Short: "Ingest every PDF in a directory",
	Long: `Ingests every PDF file in a directory, each under its own namespace,
and prints the namespace per file.`,
	Run: func(cmd *cobra.Command, args []string) {
		directory, _ := cmd.Flags().GetString("directory")
		source, _ := cmd.Flags().GetString("source")
		if directory == "" {
			log.Fatal().Msg("missing --directory")
		}

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

		files, err := os.ReadDir(directory)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read directory")
		}
		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".pdf") {
				continue
			}
			filePath := filepath.Join(directory, file.Name())
			result, err := ingestService.IngestFile(context.Background(), filePath, types.UploadMetadata{
				Title:  utils.FileNameWithoutExt(filePath),
				Source: source,
			})
			if err != nil {
				log.Error().Err(err).Str("file", filePath).Msg("failed to ingest document")
				continue
			}
			fmt.Printf("%s -> namespace %s (%d chunks, %d pages)\n", file.Name(), result.Namespace, result.ChunkCount, result.PageCount)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)

	batchUploadDocumentCmd.Flags().String("directory", "", "Path to the directory to ingest")
	batchUploadDocumentCmd.Flags().StringP("source", "s", "", "Source label stored with the chunks")
}
