package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/growhub/growhub/internal/database/models"
	"github.com/growhub/growhub/internal/database/mongodb"
)

// programsCollection is the MongoDB collection holding grow programs.
const programsCollection = "grow_programs"

// MongoProgramRepository is the MongoDB-backed ProgramRepo.
type MongoProgramRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoProgramRepository creates a program repository on the given client.
func NewMongoProgramRepository(client *mongodb.Client, logger *slog.Logger) *MongoProgramRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoProgramRepository{
		coll:   client.Collection(programsCollection),
		logger: logger.With(slog.String("collection", programsCollection)),
	}
}

// Create inserts a new program.
func (r *MongoProgramRepository) Create(ctx context.Context, p *models.GrowProgram) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

// GetByID retrieves a program by its ID.
func (r *MongoProgramRepository) GetByID(ctx context.Context, id string) (*models.GrowProgram, error) {
	var p models.GrowProgram
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &p, nil
}

// List retrieves programs with pagination, newest first.
func (r *MongoProgramRepository) List(ctx context.Context, limit, offset int) ([]*models.GrowProgram, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer cursor.Close(ctx)

	programs := []*models.GrowProgram{}
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, fmt.Errorf("decode programs: %w", err)
	}
	return programs, nil
}
