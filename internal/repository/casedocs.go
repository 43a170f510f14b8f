package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"legal-case-intelligence/models"
)

// CaseDocumentRepository stores the denormalized per-case aggregates in the
// document store.
type CaseDocumentRepository struct {
	collection *mongo.Collection
}

func NewCaseDocumentRepository(db *mongo.Database) *CaseDocumentRepository {
	return &CaseDocumentRepository{collection: db.Collection("case_documents")}
}

// UpsertAnalysisResult merges one analysis result into the case aggregate,
// creating the aggregate on first write. Re-persisting the same analysis id
// replaces the entry instead of duplicating it.
func (r *CaseDocumentRepository) UpsertAnalysisResult(ctx context.Context, caseID, ownerID uuid.UUID, result models.CaseAnalysisResult) error {
	now := time.Now()

	var doc models.CaseDocument
	err := r.collection.FindOne(ctx, bson.M{"case_id": caseID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		doc = models.CaseDocument{
			CaseID:    caseID.String(),
			OwnerID:   ownerID.String(),
			CreatedAt: now,
		}
	} else if err != nil {
		return fmt.Errorf("failed to load case aggregate %s: %w", caseID, err)
	}

	doc.UpsertAnalysis(result, now)

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"case_id": caseID.String()}, doc, opts); err != nil {
		return fmt.Errorf("failed to store case aggregate %s: %w", caseID, err)
	}
	return nil
}

// GetByCaseID loads the aggregate for a case.
func (r *CaseDocumentRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*models.CaseDocument, error) {
	var doc models.CaseDocument
	err := r.collection.FindOne(ctx, bson.M{"case_id": caseID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("case aggregate %s: %w", caseID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByOwner returns a user's aggregates, most recently analyzed first.
func (r *CaseDocumentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int64) ([]models.CaseDocument, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_analyzed_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.CaseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
