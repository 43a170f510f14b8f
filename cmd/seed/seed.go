package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/internal/queue"
)

// Seeds one case with a document and queues its extraction. Useful for
// exercising the pipeline end to end against a local stack.
func main() {
	title := flag.String("title", "Demo v. Example Corp", "case title")
	description := flag.String("description", "Breach of software licensing agreement with consequential damages", "case description")
	jurisdiction := flag.String("jurisdiction", "federal", "case jurisdiction")
	filePath := flag.String("file", "", "path to a document to extract (required)")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("provide -file pointing at a document")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	pool, err := config.ConnectPostgres(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	caseID := uuid.New()
	ownerID := uuid.New()
	documentID := uuid.New()
	fileName := filepath.Base(*filePath)

	_, err = pool.Exec(ctx, `
		INSERT INTO cases (id, owner_id, title, description, jurisdiction)
		VALUES ($1, $2, $3, $4, $5)`,
		caseID, ownerID, *title, *description, *jurisdiction)
	if err != nil {
		log.Fatalf("Failed to insert case: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO documents (id, case_id, file_name, file_path, status)
		VALUES ($1, $2, $3, $4, 'pending')`,
		documentID, caseID, fileName, *filePath)
	if err != nil {
		log.Fatalf("Failed to insert document: %v", err)
	}

	enqueuer := queue.NewEnqueuer(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg)
	defer enqueuer.Close()

	if err := enqueuer.ScheduleExtraction(ctx, caseID, documentID, *filePath, fileName); err != nil {
		log.Fatalf("Failed to enqueue extraction: %v", err)
	}

	logger.Info("seeded case and queued extraction",
		"case_id", caseID, "document_id", documentID, "file", fileName)
}
