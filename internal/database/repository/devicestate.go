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

// deviceStateCollection holds one actuator-state document per module.
const deviceStateCollection = "device_state"

// MongoDeviceStateRepository is the MongoDB-backed DeviceStateRepo.
type MongoDeviceStateRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoDeviceStateRepository creates a device-state repository on the
// given client.
func NewMongoDeviceStateRepository(client *mongodb.Client, logger *slog.Logger) *MongoDeviceStateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoDeviceStateRepository{
		coll:   client.Collection(deviceStateCollection),
		logger: logger.With(slog.String("collection", deviceStateCollection)),
	}
}

// Get retrieves the module's actuator-state document.
func (r *MongoDeviceStateRepository) Get(ctx context.Context, moduleID string) (*models.DeviceState, error) {
	var state models.DeviceState
	err := r.coll.FindOne(ctx, bson.M{"_id": moduleID}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find device state: %w", err)
	}
	return &state, nil
}

// schedulePath addresses one schedule entry inside the document.
func schedulePath(pin int, scheduleID string) string {
	return fmt.Sprintf("pins.%d.schedules.%s", pin, scheduleID)
}

// PutSchedules writes all entries in one batched $set, upserting the device
// document if needed. Entries land at pins.<pin>.schedules.<scheduleId>, so
// re-writing the same cycle+role overwrites rather than duplicates.
func (r *MongoDeviceStateRepository) PutSchedules(ctx context.Context, moduleID string, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	for _, e := range entries {
		set[schedulePath(e.Pin, e.ScheduleID)] = e
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": moduleID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put schedules: %w", err)
	}
	return nil
}

// RemoveCycleSchedules sweeps every pin's schedule sub-map for entries tagged
// with cycleID and deletes them in one batched $unset. The sweep deliberately
// ignores the current pin bindings: a pin may have been rebound since the
// schedule was written, so retraction is keyed by cycleId alone.
func (r *MongoDeviceStateRepository) RemoveCycleSchedules(ctx context.Context, moduleID, cycleID string) (int, error) {
	state, err := r.Get(ctx, moduleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Device was deleted out from under us; cleanup is best effort.
			return 0, nil
		}
		return 0, err
	}

	unset := bson.M{}
	for pin, ps := range state.Pins {
		for id, entry := range ps.Schedules {
			if entry.ManagedBy == models.ScheduleManagedBy && entry.CycleID == cycleID {
				unset[fmt.Sprintf("pins.%s.schedules.%s", pin, id)] = ""
			}
		}
	}
	if len(unset) == 0 {
		return 0, nil
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": moduleID}, bson.M{
		"$unset": unset,
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return 0, fmt.Errorf("remove cycle schedules: %w", err)
	}
	return len(unset), nil
}

// SetCycleSchedulesEnabled toggles the enabled flag on every entry tagged
// with cycleID, across all pins, in one batched update. Used by pause and
// resume; the timing values themselves are left untouched.
func (r *MongoDeviceStateRepository) SetCycleSchedulesEnabled(ctx context.Context, moduleID, cycleID string, enabled bool) (int, error) {
	state, err := r.Get(ctx, moduleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	count := 0
	for pin, ps := range state.Pins {
		for id, entry := range ps.Schedules {
			if entry.ManagedBy == models.ScheduleManagedBy && entry.CycleID == cycleID {
				set[fmt.Sprintf("pins.%s.schedules.%s.enabled", pin, id)] = enabled
				count++
			}
		}
	}
	if count == 0 {
		return 0, nil
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": moduleID}, bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("set cycle schedules enabled: %w", err)
	}
	return count, nil
}
