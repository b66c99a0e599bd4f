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

// cyclesCollection is the MongoDB collection holding grow cycles.
const cyclesCollection = "grow_cycles"

// MongoCycleRepository is the MongoDB-backed CycleRepo.
type MongoCycleRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoCycleRepository creates a cycle repository on the given client.
func NewMongoCycleRepository(client *mongodb.Client, logger *slog.Logger) *MongoCycleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoCycleRepository{
		coll:   client.Collection(cyclesCollection),
		logger: logger.With(slog.String("collection", cyclesCollection)),
	}
}

// EnsureIndexes creates the partial unique index that enforces at most one
// active cycle per module at the data layer.
func (r *MongoCycleRepository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{{Key: "moduleId", Value: 1}},
		Options: options.Index().
			SetName("one_active_cycle_per_module").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.CycleActive}),
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create cycle indexes: %w", err)
	}
	return nil
}

// Create inserts a new cycle. A duplicate-key error from the partial unique
// index maps to ErrActiveCycleExists.
func (r *MongoCycleRepository) Create(ctx context.Context, c *models.GrowCycle) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveCycleExists
		}
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// GetByID retrieves a cycle by its ID.
func (r *MongoCycleRepository) GetByID(ctx context.Context, id string) (*models.GrowCycle, error) {
	var c models.GrowCycle
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cycle: %w", err)
	}
	return &c, nil
}

// FindActiveByModule retrieves the module's active cycle, if any.
func (r *MongoCycleRepository) FindActiveByModule(ctx context.Context, moduleID string) (*models.GrowCycle, error) {
	var c models.GrowCycle
	err := r.coll.FindOne(ctx, bson.M{
		"moduleId": moduleID,
		"status":   models.CycleActive,
	}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active cycle: %w", err)
	}
	return &c, nil
}

// List retrieves cycles matching the filter with pagination, newest first.
func (r *MongoCycleRepository) List(ctx context.Context, f CycleFilter, limit, offset int) ([]*models.GrowCycle, error) {
	filter := bson.M{}
	if f.ModuleID != "" {
		filter["moduleId"] = f.ModuleID
	}
	if f.OrganizationID != "" {
		filter["organizationId"] = f.OrganizationID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer cursor.Close(ctx)

	cycles := []*models.GrowCycle{}
	if err := cursor.All(ctx, &cycles); err != nil {
		return nil, fmt.Errorf("decode cycles: %w", err)
	}
	return cycles, nil
}

// Update replaces the cycle's mutable lifecycle fields.
func (r *MongoCycleRepository) Update(ctx context.Context, c *models.GrowCycle) error {
	c.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"status":          c.Status,
		"awaitingHarvest": c.AwaitingHarvest,
		"pausedAt":        c.PausedAt,
		"completedAt":     c.CompletedAt,
		"harvest":         c.Harvest,
		"updatedAt":       c.UpdatedAt,
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": c.ID}, update)
	if err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStage persists a stage transition, conditioned on the stored current
// stage still being from. A matched count of zero with an existing cycle
// means another evaluator already performed the transition.
func (r *MongoCycleRepository) UpdateStage(ctx context.Context, cycleID string, from, to models.StageType, history []models.StageHistoryEntry) error {
	update := bson.M{"$set": bson.M{
		"currentStage": to,
		"stageHistory": history,
		"updatedAt":    time.Now().UTC(),
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": cycleID, "currentStage": from}, update)
	if err != nil {
		return fmt.Errorf("update cycle stage: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a lost race from a deleted cycle.
		if _, getErr := r.GetByID(ctx, cycleID); getErr != nil {
			return getErr
		}
		return ErrStageConflict
	}
	return nil
}

// SetCurrentDay persists the computed current day, optionally appending a
// daily log entry.
func (r *MongoCycleRepository) SetCurrentDay(ctx context.Context, cycleID string, day int, entry *models.DailyLogEntry) error {
	update := bson.M{"$set": bson.M{
		"currentDay": day,
		"updatedAt":  time.Now().UTC(),
	}}
	if entry != nil {
		update["$push"] = bson.M{"dailyLog": entry}
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": cycleID}, update)
	if err != nil {
		return fmt.Errorf("set current day: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAwaitingHarvest flags a cycle that has run past every stage's day range.
func (r *MongoCycleRepository) SetAwaitingHarvest(ctx context.Context, cycleID string, awaiting bool) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": cycleID}, bson.M{"$set": bson.M{
		"awaitingHarvest": awaiting,
		"updatedAt":       time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set awaiting harvest: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
