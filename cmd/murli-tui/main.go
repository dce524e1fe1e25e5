package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/onepointconsulting/murli-chat/internal/tui"
	"github.com/onepointconsulting/murli-chat/pkg/chunker"
	cfgPkg "github.com/onepointconsulting/murli-chat/pkg/config"
	"github.com/onepointconsulting/murli-chat/pkg/corpus"
	"github.com/onepointconsulting/murli-chat/pkg/index"
	"github.com/onepointconsulting/murli-chat/pkg/llm"
	"github.com/onepointconsulting/murli-chat/pkg/pipeline"
)

func main() {
	godotenv.Load()

	var configPath string
	var rebuild bool
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&rebuild, "rebuild", false, "Rebuild the index from the corpus before starting")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config: %s", e.Error())
		}
		os.Exit(1)
	}

	if err := run(config, rebuild); err != nil {
		log.Fatal(err)
	}
}

func run(config *cfgPkg.Config, rebuild bool) error {
	ctx := context.Background()

	split, err := chunker.NewWithConfig(chunker.ChunkerConfig{
		MaxLength: config.Chunker.MaxLength,
		Overlap:   config.Chunker.Overlap,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.LLM.EmbeddingModel,
		BatchSize: config.LLM.EmbedBatchSize,
		RateRPS:   config.LLM.EmbedRateRPS,
		BaseURL:   config.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		Temperature: config.LLM.Temperature,
		BaseURL:     config.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	vectorIndex, err := index.Open(ctx, index.Config{
		Backend:     config.Index.Backend,
		Store:       config.Index.Store,
		DatabaseURL: config.Index.DatabaseURL,
		TableName:   config.Index.TableName,
		VectorDim:   config.Index.VectorDim,
	})
	if err != nil {
		return fmt.Errorf("failed to open vector index: %v", err)
	}
	defer vectorIndex.Close()

	p := pipeline.NewWithConfig(split, embedder, vectorIndex, chatEngine, pipeline.PipelineConfig{
		TopK:        config.Retrieval.TopK,
		Workers:     config.Build.Workers,
		MaxAttempts: config.Build.MaxAttempts,
	})

	n, err := vectorIndex.Len(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect index: %v", err)
	}
	if rebuild || n == 0 {
		loader := corpus.NewLoader(config.Corpus.Location)
		docs, failed, err := loader.Load()
		if err != nil {
			return fmt.Errorf("failed to load corpus: %v", err)
		}
		if failed > 0 {
			log.Printf("skipped %d unreadable files", failed)
		}
		total, err := p.Build(ctx, docs)
		if err != nil {
			return fmt.Errorf("failed to build index: %v", err)
		}
		log.Printf("indexed %d segments from %d documents", total, len(docs))
	}

	_, err = tea.NewProgram(tui.New(p), tea.WithAltScreen()).Run()
	return err
}
