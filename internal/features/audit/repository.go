package audit

import (
	"context"
	"regexp"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository interface {
	Create(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter bson.M, limit, offset int64) ([]AuditLog, int64, error)
	Search(ctx context.Context, term string, limit int64) ([]AuditLog, error)
	CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error)
	CountByResource(ctx context.Context, since time.Time) ([]ResourceCount, error)
	TopUsers(ctx context.Context, since time.Time, n int64) ([]UserActivity, error)
	HourlyHistogram(ctx context.Context, since time.Time) ([]HourBucket, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type AuditRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAuditRepository(mongodb *database.MongodbDB) AuditRepository {
	return &AuditRepositoryImpl{
		Collection: mongodb.DB.Collection("audit_logs"),
	}
}

// wrapErr maps driver timeouts onto the Transient kind so callers can retry
// the whole operation safely.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return apperr.Transient(err)
	}
	return err
}

// searchFilter matches term as a literal substring across the text fields,
// case insensitively.
func searchFilter(term string) bson.M {
	regex := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	return bson.M{"$or": []bson.M{
		{"description": bson.M{"$regex": regex}},
		{"username": bson.M{"$regex": regex}},
		{"resource_type": bson.M{"$regex": regex}},
	}}
}

func (r *AuditRepositoryImpl) Create(ctx context.Context, log *AuditLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, log)
	return wrapErr(err)
}

func (r *AuditRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64) ([]AuditLog, int64, error) {
	total, err := r.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr(err)
	}

	opts := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var logs []AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, wrapErr(err)
	}
	return logs, total, nil
}

func (r *AuditRepositoryImpl) Search(ctx context.Context, term string, limit int64) ([]AuditLog, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.Collection.Find(ctx, searchFilter(term), opts)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var logs []AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, wrapErr(err)
	}
	return logs, nil
}

func (r *AuditRepositoryImpl) groupSince(ctx context.Context, since time.Time, groupBy string, out interface{}, extra ...bson.D) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   groupBy,
			"count": bson.M{"$sum": 1},
		}}},
	}
	pipeline = append(pipeline, extra...)

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return wrapErr(err)
	}
	defer cursor.Close(ctx)

	return wrapErr(cursor.All(ctx, out))
}

func (r *AuditRepositoryImpl) CountByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	var counts []ActionCount
	err := r.groupSince(ctx, since, "$action", &counts)
	return counts, err
}

func (r *AuditRepositoryImpl) CountByResource(ctx context.Context, since time.Time) ([]ResourceCount, error) {
	var counts []ResourceCount
	err := r.groupSince(ctx, since, "$resource_type", &counts)
	return counts, err
}

func (r *AuditRepositoryImpl) TopUsers(ctx context.Context, since time.Time, n int64) ([]UserActivity, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"timestamp": bson.M{"$gte": since},
			"username":  bson.M{"$nin": bson.A{nil, ""}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$username",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: n}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var users []UserActivity
	if err := cursor.All(ctx, &users); err != nil {
		return nil, wrapErr(err)
	}
	return users, nil
}

func (r *AuditRepositoryImpl) HourlyHistogram(ctx context.Context, since time.Time) ([]HourBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$hour": "$timestamp"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var buckets []HourBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, wrapErr(err)
	}
	return buckets, nil
}

func (r *AuditRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, wrapErr(err)
	}
	return res.DeletedCount, nil
}
