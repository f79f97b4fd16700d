package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memory-app/memory-api/internal/core/domain"
)

const (
	collectionAssignments = "project_assignments"

	// indexActiveAssignment allows a single active row per (user, project).
	indexActiveAssignment = "assignments_active_unique"
)

type AssignmentRepository struct {
	col *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) *AssignmentRepository {
	return &AssignmentRepository{col: db.Collection(collectionAssignments)}
}

type assignmentDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           int64              `bson:"user_id"`
	ProjectID        int64              `bson:"project_id"`
	RoleInProject    string             `bson:"role_in_project"`
	AssignedByUserID int64              `bson:"assigned_by_user_id"`
	Status           string             `bson:"status"`
	StartDate        time.Time          `bson:"start_date"`
	EndDate          *time.Time         `bson:"end_date,omitempty"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (d *assignmentDoc) toDomain() *domain.Assignment {
	a := &domain.Assignment{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		ProjectID:        d.ProjectID,
		RoleInProject:    d.RoleInProject,
		AssignedByUserID: d.AssignedByUserID,
		Status:           domain.AssignmentStatus(d.Status),
		StartDate:        d.StartDate.UTC(),
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	if d.EndDate != nil {
		t := d.EndDate.UTC()
		a.EndDate = &t
	}
	return a
}

func activeFilter(userID, projectID int64) bson.M {
	return bson.M{
		"user_id":    userID,
		"project_id": projectID,
		"status":     string(domain.AssignmentActive),
	}
}

func (r *AssignmentRepository) FindActive(ctx context.Context, userID, projectID int64) (*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc assignmentDoc
	if err := r.col.FindOne(ctx, activeFilter(userID, projectID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AssignmentRepository) Insert(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := assignmentDoc{
		ID:               primitive.NewObjectID(),
		UserID:           a.UserID,
		ProjectID:        a.ProjectID,
		RoleInProject:    a.RoleInProject,
		AssignedByUserID: a.AssignedByUserID,
		Status:           string(a.Status),
		StartDate:        a.StartDate,
		EndDate:          a.EndDate,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if duplicateIndex(err, indexActiveAssignment) != "" {
			return nil, domain.ErrAlreadyAssigned
		}
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AssignmentRepository) Deactivate(ctx context.Context, userID, projectID int64, endDate time.Time) error {
	return r.updateActive(ctx, userID, projectID, bson.M{
		"status":   string(domain.AssignmentInactive),
		"end_date": endDate,
	})
}

func (r *AssignmentRepository) UpdateRole(ctx context.Context, userID, projectID int64, role string) error {
	return r.updateActive(ctx, userID, projectID, bson.M{"role_in_project": role})
}

func (r *AssignmentRepository) updateActive(ctx context.Context, userID, projectID int64, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, activeFilter(userID, projectID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AssignmentRepository) IsActiveManager(ctx context.Context, userID, projectID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := activeFilter(userID, projectID)
	filter["role_in_project"] = domain.ProjectRoleManager
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check manager: %w", err)
	}
	return n > 0, nil
}

func (r *AssignmentRepository) CountActiveManagers(ctx context.Context, projectID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{
		"project_id":      projectID,
		"status":          string(domain.AssignmentActive),
		"role_in_project": domain.ProjectRoleManager,
	})
	if err != nil {
		return 0, fmt.Errorf("count managers: %w", err)
	}
	return n, nil
}

// ListByProject returns a project's assignments, newest first. History
// includes inactive rows when activeOnly is false.
func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID int64, activeOnly bool) ([]*domain.Assignment, error) {
	filter := bson.M{"project_id": projectID}
	if activeOnly {
		filter["status"] = string(domain.AssignmentActive)
	}
	return r.list(ctx, filter)
}

func (r *AssignmentRepository) ListByUser(ctx context.Context, userID int64, role string) ([]*domain.Assignment, error) {
	filter := bson.M{"user_id": userID, "status": string(domain.AssignmentActive)}
	if role != "" {
		filter["role_in_project"] = role
	}
	return r.list(ctx, filter)
}

func (r *AssignmentRepository) list(ctx context.Context, filter bson.M) ([]*domain.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "start_date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	var docs []assignmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}

	out := make([]*domain.Assignment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the partial unique index that closes the
// check-then-insert race in Assign, plus lookup indexes.
func (r *AssignmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "project_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(indexActiveAssignment).
				SetPartialFilterExpression(bson.M{"status": string(domain.AssignmentActive)}),
		},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("assignment indexes: %w", err)
	}
	return nil
}
