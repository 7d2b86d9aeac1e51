package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hans-clinic/appointment-system/internal/core/domain"
	"github.com/hans-clinic/appointment-system/internal/core/ports"
)

const collectionNotifications = "notifications"

// pendingStatuses are the states a delivery outcome may be committed from.
// A notification canceled while a send was in flight matches neither, so
// the outcome write applies to zero documents and the result is discarded.
var pendingStatuses = bson.A{domain.NotificationScheduled, domain.NotificationFailed}

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, n)
	return err
}

func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n domain.Notification
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) List(ctx context.Context, f ports.ListNotificationsFilter) ([]*domain.Notification, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.AppointmentID != "" {
		filter["appointment_id"] = f.AppointmentID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Channel != "" {
		filter["channel"] = f.Channel
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
		if f.Page > 1 {
			opts.SetSkip(int64((f.Page - 1) * f.Limit))
		}
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []*domain.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindDue returns scheduled notifications whose scheduled_at is absent or
// has passed, oldest first.
func (r *NotificationRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status": domain.NotificationScheduled,
		"$or": bson.A{
			bson.M{"scheduled_at": bson.M{"$exists": false}},
			bson.M{"scheduled_at": nil},
			bson.M{"scheduled_at": bson.M{"$lte": now}},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []*domain.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindRetryable returns failed notifications with retry budget left.
func (r *NotificationRepository) FindRetryable(ctx context.Context, maxRetries, limit int) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":      domain.NotificationFailed,
		"retry_count": bson.M{"$lt": maxRetries},
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []*domain.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSent commits a successful delivery: status and sent_at change in the
// same write, so the "sent_at set iff status=sent" invariant can never tear.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": pendingStatuses}},
		bson.M{"$set": bson.M{
			"status":     domain.NotificationSent,
			"sent_at":    now,
			"updated_at": now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkFailed records a transport failure. retry_count is deliberately left
// alone: it counts retry attempts, not failures.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, errMsg string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": pendingStatuses}},
		bson.M{"$set": bson.M{
			"status":        domain.NotificationFailed,
			"error_message": errMsg,
			"updated_at":    now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkCanceled transitions scheduled -> canceled. Any other current status
// leaves the document untouched.
func (r *NotificationRepository) MarkCanceled(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.NotificationScheduled},
		bson.M{"$set": bson.M{
			"status":     domain.NotificationCanceled,
			"updated_at": now,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// IncrementRetry bumps retry_count under the budget guard, so concurrent
// retries cannot push it past maxRetries.
func (r *NotificationRepository) IncrementRetry(ctx context.Context, id string, maxRetries int, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":         id,
			"status":      domain.NotificationFailed,
			"retry_count": bson.M{"$lt": maxRetries},
		},
		bson.M{
			"$inc": bson.M{"retry_count": 1},
			"$set": bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// EnsureIndexes creates necessary indexes on the notifications collection.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "appointment_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "scheduled_at", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
