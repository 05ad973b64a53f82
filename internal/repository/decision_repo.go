package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/elite-matchmaking/internal/db"
)

// DecisionRepository provides data access methods for the Decision model.
// It encapsulates all queries related to accept/reject swipes between accounts.
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new repository bound to the given DB connection.
func NewDecisionRepository(database *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: database}
}

// Upsert inserts or updates a decision made by actor -> recipient.
//
// Behavior:
//   - If (actor_id, recipient_id) pair exists → the row is updated with the new direction.
//   - If it doesn't exist → a new row is inserted.
//   - Composite PK ensures overwrite guarantee.
//
// Example:
//
//	repo.Upsert(ctx, "a", "b", db.DirectionAccept) // a accepted b
func (r *DecisionRepository) Upsert(ctx context.Context, actorID, recipientID, direction string) error {
	decision := db.Decision{
		ActorID:     actorID,
		RecipientID: recipientID,
		Direction:   direction,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "recipient_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction", "updated_at"}),
		}).
		Create(&decision).Error
}

// InsertIfAbsent writes a decision only when the pair has no row yet.
// Returns whether a row was inserted. A single conditional write, so two
// concurrent callers cannot both insert.
func (r *DecisionRepository) InsertIfAbsent(ctx context.Context, actorID, recipientID, direction string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Decision{ActorID: actorID, RecipientID: recipientID, Direction: direction})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecidedIDs returns every recipient the actor has decided on, either way.
func (r *DecisionRepository) DecidedIDs(ctx context.Context, actorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("actor_id = ?", actorID).
		Pluck("recipient_id", &ids).Error
	return ids, err
}

// HasAccepted checks whether an actor has accepted a recipient.
//
// Example:
//
//	repo.HasAccepted(ctx, "a", "b") // -> true if a accepted b
func (r *DecisionRepository) HasAccepted(ctx context.Context, actorID, recipientID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("actor_id = ? AND recipient_id = ? AND direction = ?", actorID, recipientID, db.DirectionAccept).
		Count(&count).Error
	return count > 0, err
}

// CountAcceptsReceived returns how many accounts accepted the recipient.
// Used in conjunction with Redis cache (DB is fallback).
func (r *DecisionRepository) CountAcceptsReceived(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Decision{}).
		Where("recipient_id = ? AND direction = ?", recipientID, db.DirectionAccept).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// AcceptedTargets returns the recipients the actor accepted, most recent first.
func (r *DecisionRepository) AcceptedTargets(ctx context.Context, actorID string) ([]db.Decision, error) {
	var decisions []db.Decision
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND direction = ?", actorID, db.DirectionAccept).
		Order("updated_at DESC, recipient_id DESC").
		Find(&decisions).Error
	return decisions, err
}

// DeleteByActor removes all decisions the actor made. Returns the removed rows
// so callers can invalidate derived counters.
func (r *DecisionRepository) DeleteByActor(ctx context.Context, actorID string) ([]db.Decision, error) {
	var removed []db.Decision
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("actor_id = ?", actorID).Find(&removed).Error; err != nil {
			return err
		}
		return tx.Where("actor_id = ?", actorID).Delete(&db.Decision{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
