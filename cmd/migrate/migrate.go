package main

import (
	"context"
	"log"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/logger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
    id UUID PRIMARY KEY,
    owner_id UUID NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    jurisdiction VARCHAR(100) NOT NULL DEFAULT '',
    probability_of_success DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
    file_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    extracted_text TEXT NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_case_status ON documents (case_id, status);

CREATE TABLE IF NOT EXISTS case_analyses (
    id UUID PRIMARY KEY,
    case_id UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
    document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL,
    viability_score INTEGER NOT NULL DEFAULT 0,
    confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    analysis_text TEXT NOT NULL DEFAULT '',
    key_legal_issues JSONB NOT NULL DEFAULT '[]',
    potential_defenses JSONB NOT NULL DEFAULT '[]',
    evidence_evaluation JSONB NOT NULL DEFAULT '{}',
    recommendations JSONB NOT NULL DEFAULT '[]',
    tokens_used INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    detail_write_pending BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ,
    processing_time_ms BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_case_analyses_case ON case_analyses (case_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_case_analyses_stuck ON case_analyses (status, created_at)
    WHERE status = 'processing';
CREATE INDEX IF NOT EXISTS idx_case_analyses_pending_detail ON case_analyses (created_at)
    WHERE detail_write_pending;

CREATE TABLE IF NOT EXISTS case_matches (
    id UUID PRIMARY KEY,
    source_case_id UUID NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
    matched_case_id TEXT NOT NULL,
    citation TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    similarity_score DOUBLE PRECISION NOT NULL,
    is_precedent BOOLEAN NOT NULL DEFAULT FALSE,
    confidence_level DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_case_matches_source ON case_matches (source_case_id, similarity_score DESC);

CREATE TABLE IF NOT EXISTS matching_criteria (
    id UUID PRIMARY KEY,
    field VARCHAR(100) NOT NULL,
    operator VARCHAR(20) NOT NULL,
    threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
    weight DOUBLE PRECISION NOT NULL DEFAULT 1,
    priority INTEGER NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
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

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("relational schema applied")

	// Connecting also ensures the document-store indexes.
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	logger.Info("document store indexes ensured", "db", cfg.DBName)
}
