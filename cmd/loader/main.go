// Command loader bulk-ingests watchlist records from a JSONL file, one
// record per line: {"id": ..., "name": ..., "aliases": [...], "source": ...}.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/config"
	"github.com/namescreen/namescreen/internal/db"
	dbMemory "github.com/namescreen/namescreen/internal/db/memory"
	dbRedis "github.com/namescreen/namescreen/internal/db/redis"
	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/embed/ngram"
	logpkg "github.com/namescreen/namescreen/internal/logger"
	"github.com/namescreen/namescreen/internal/metrics"
	"github.com/namescreen/namescreen/internal/normalize"
	"github.com/namescreen/namescreen/internal/repository/embcache"
	entryrepo "github.com/namescreen/namescreen/internal/repository/entry"
	openaiEmb "github.com/namescreen/namescreen/internal/transport/openai"
	ingestuc "github.com/namescreen/namescreen/internal/usecase/ingest"
)

type fileRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	Source  string   `json:"source"`
}

func main() {
	var (
		filePath  string
		batchSize int
		delay     time.Duration
	)
	flag.StringVar(&filePath, "file", "", "path to JSONL file with watchlist records")
	flag.IntVar(&batchSize, "batch-size", 200, "records per ingestion batch")
	flag.DurationVar(&delay, "delay", 0, "pause between batches (e.g. 100ms)")
	flag.Parse()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: loader -file records.jsonl [-batch-size 200] [-delay 100ms]")
		os.Exit(1)
	}

	// .env feeds the ${VAR} placeholders in the YAML config.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterEmbeddingMetrics()

	if err := run(filePath, batchSize, delay, cfg, logger); err != nil {
		logger.Fatal("Load failed", zap.Error(err))
	}
}

func run(filePath string, batchSize int, delay time.Duration, cfg config.Config, logger *zap.Logger) error {
	var store db.Store
	var err error
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return fmt.Errorf("create store: %w", err)
		}
	case "memory":
		store = dbMemory.NewStore()
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("index store not ready: %w", err)
	}

	if err := ensureIndex(ctx, store, cfg); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	embedder, err := buildEmbedder(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create vectorizer: %w", err)
	}

	entryRepo := entryrepo.New(store, cfg.Storage.KeyPrefix, cfg.Vectorizer.Dimensions)
	ingestSvc := ingestuc.New(entryRepo, normalize.New(), embedder, logger)

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	if batchSize <= 0 || batchSize > cfg.Index.MaxBatchSize {
		batchSize = cfg.Index.MaxBatchSize
	}

	var (
		batch     []ingestuc.Record
		line      int
		succeeded int
		failed    int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		for _, res := range ingestSvc.BatchUpsert(ctx, batch) {
			if res.Err != nil {
				failed++
				logger.Warn("Record rejected", zap.String("id", res.ID), zap.Error(res.Err))
			} else {
				succeeded++
			}
		}
		logger.Info("Batch ingested",
			zap.Int("size", len(batch)),
			zap.Int("succeeded_total", succeeded),
			zap.Int("failed_total", failed),
		)
		batch = batch[:0]
		if delay > 0 {
			time.Sleep(delay)
		}
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec fileRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			failed++
			logger.Warn("Skipping malformed line", zap.Int("line", line), zap.Error(err))
			continue
		}

		batch = append(batch, ingestuc.Record{
			ID:      rec.ID,
			Name:    rec.Name,
			Aliases: rec.Aliases,
			Source:  rec.Source,
		})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("Load complete",
		zap.Int("lines", line),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	)
	return nil
}

func ensureIndex(ctx context.Context, store db.Store, cfg config.Config) error {
	def := &db.IndexDefinition{
		Name:     cfg.Index.Name,
		Prefixes: []string{cfg.Storage.KeyPrefix + "entry:"},
		Fields: []db.IndexField{
			{Name: db.FieldTokens, Type: db.IndexFieldText},
			{
				Name:              db.FieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         cfg.Vectorizer.Dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           cfg.Index.HNSWM,
				VectorEFConstruct: cfg.Index.HNSWEFConstruct,
			},
		},
	}
	if err := store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, error) {
	var base domain.Embedder
	switch cfg.Vectorizer.Provider {
	case "openai":
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Vectorizer.APIKey,
			BaseURL:    cfg.Vectorizer.BaseURL,
			Model:      cfg.Vectorizer.Model,
			Dimensions: cfg.Vectorizer.Dimensions,
			Provider:   cfg.Vectorizer.Provider,
			Logger:     logger,
		})
	case "ngram":
		e, err := ngram.New(cfg.Vectorizer.Dimensions)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		return nil, fmt.Errorf("unknown vectorizer provider %q", cfg.Vectorizer.Provider)
	}

	return embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger), nil
}
