package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memory-app/memory-api/internal/core/domain"
)

const collectionAudit = "audit_events"

// AuditRepository appends audit events. Events are never updated.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type auditDoc struct {
	ID         string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	ActorID    int64     `bson:"actor_id,omitempty"`
	SubjectID  int64     `bson:"subject_id,omitempty"`
	ProjectID  int64     `bson:"project_id,omitempty"`
	Detail     string    `bson:"detail,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, ev *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, auditDoc{
		ID:         ev.ID,
		Kind:       string(ev.Kind),
		ActorID:    ev.ActorID,
		SubjectID:  ev.SubjectID,
		ProjectID:  ev.ProjectID,
		Detail:     ev.Detail,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		// A retried event with the same id is already stored.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "occurred_at", Value: -1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}
