package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/onepointconsulting/murli-chat/internal/models"
	"github.com/onepointconsulting/murli-chat/pkg/chunker"
	cfgPkg "github.com/onepointconsulting/murli-chat/pkg/config"
	"github.com/onepointconsulting/murli-chat/pkg/corpus"
	"github.com/onepointconsulting/murli-chat/pkg/history"
	"github.com/onepointconsulting/murli-chat/pkg/index"
	"github.com/onepointconsulting/murli-chat/pkg/llm"
	"github.com/onepointconsulting/murli-chat/pkg/pipeline"
)

func main() {
	godotenv.Load()

	config, rebuild := parseFlags()

	if errs := config.Validate(); len(errs) > 0 {
		for _, err := range errs {
			color.Red("config: %s", err.Error())
		}
		os.Exit(1)
	}

	if err := run(config, rebuild); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (*cfgPkg.Config, bool) {
	var configPath string
	var docLocation, indexStore, backend, dbURL, model string
	var maxLength, overlap, topK, workers int
	var rebuild bool

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&docLocation, "doc-location", "", "Directory holding the murli text files")
	flag.StringVar(&indexStore, "index-store", "", "Directory for the persisted index")
	flag.StringVar(&backend, "backend", "", "Index backend (memory, sqlite, pgvector)")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string for the pgvector backend")
	flag.StringVar(&model, "model", "", "Chat model to use")
	flag.IntVar(&maxLength, "max-length", 0, "Maximum segment length in characters")
	flag.IntVar(&overlap, "overlap", -1, "Overlap between neighbouring segments")
	flag.IntVar(&topK, "top-k", 0, "Number of segments to retrieve per question")
	flag.IntVar(&workers, "workers", 0, "Concurrent documents during index build")
	flag.BoolVar(&rebuild, "rebuild", false, "Rebuild the index from the corpus before chatting")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Command line flags win over file and environment values
	if docLocation != "" {
		config.Corpus.Location = docLocation
	}
	if indexStore != "" {
		config.Index.Store = indexStore
	}
	if backend != "" {
		config.Index.Backend = backend
	}
	if dbURL != "" {
		config.Index.DatabaseURL = dbURL
	}
	if model != "" {
		config.LLM.Model = model
	}
	if maxLength > 0 {
		config.Chunker.MaxLength = maxLength
	}
	if overlap >= 0 {
		config.Chunker.Overlap = overlap
	}
	if topK > 0 {
		config.Retrieval.TopK = topK
	}
	if workers > 0 {
		config.Build.Workers = workers
	}

	return config, rebuild
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
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

	histStore, err := history.NewStore(config.History.Location)
	if err != nil {
		return fmt.Errorf("failed to open chat history: %v", err)
	}

	var indexedCount int32
	p := pipeline.NewWithConfig(split, embedder, vectorIndex, chatEngine, pipeline.PipelineConfig{
		TopK:        config.Retrieval.TopK,
		Workers:     config.Build.Workers,
		MaxAttempts: config.Build.MaxAttempts,
		OnDocument: func(source string) {
			atomic.AddInt32(&indexedCount, 1)
		},
	})

	n, err := vectorIndex.Len(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect index: %v", err)
	}
	if rebuild || n == 0 {
		if err := buildIndex(ctx, config, p, &indexedCount); err != nil {
			return err
		}
	} else {
		color.Green("✓ Using existing index with %d segments\n", n)
	}

	// Interactive chat loop with colored output
	color.Cyan("\nAsk questions about the Murlis (type 'exit' to quit)")

	if past, err := histStore.Questions(); err == nil && len(past) > 0 {
		color.Blue("Previously asked: %s", strings.Join(lastN(past, 3), " | "))
	}

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	var chatHistory []models.Exchange
	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.ToLower(question) == "exit" {
			break
		}
		if question == "" {
			continue
		}

		responseSpinner := getSpinner(" Thinking...")
		answerCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		answer, err := p.Answer(answerCtx, question, chatHistory)
		cancel()
		responseSpinner.Finish()

		if err != nil {
			color.Red("\nThe assistant is temporarily unavailable: %v\n", err)
			continue
		}

		assistantPrompt("\nAssistant: %s\n", answer.Text)
		if len(answer.Sources) > 0 {
			color.Blue("Sources: %s", strings.Join(answer.Sources, ", "))
		}

		chatHistory = append(chatHistory, models.Exchange{Question: question, Answer: answer.Text})
		if err := histStore.Append(question); err != nil {
			log.Printf("recording history: %v", err)
		}
	}

	return nil
}

func buildIndex(ctx context.Context, config *cfgPkg.Config, p *pipeline.Pipeline, indexedCount *int32) error {
	loader := corpus.NewLoader(config.Corpus.Location)
	docs, failed, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load corpus: %v", err)
	}
	if failed > 0 {
		color.Yellow("Skipped %d unreadable files\n", failed)
	}
	color.Green("✓ Loaded %d documents from %s\n", len(docs), config.Corpus.Location)

	buildBar := getProgressBar(len(docs), " Building index...")
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				buildBar.Set(int(atomic.LoadInt32(indexedCount)))
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()

	total, err := p.Build(ctx, docs)
	close(done)
	buildBar.Finish()
	if err != nil {
		return fmt.Errorf("failed to build index: %v", err)
	}

	color.Green("✓ Indexed %d segments\n", total)
	return nil
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
