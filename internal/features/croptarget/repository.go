package croptarget

import (
	"context"
	"time"

	"go-agri/internal/common/apperr"
	"go-agri/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const readRetries = 2

type CropTargetRepository interface {
	Create(ctx context.Context, target *CropTarget) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*CropTarget, error)
	FindOwned(ctx context.Context, id, owner primitive.ObjectID) (*CropTarget, error)
	List(ctx context.Context, filter bson.M, limit, offset int64, sortBy string, sortOrder int) ([]CropTarget, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	// UpdateFields patches a record if and only if it is owned by owner and
	// its status is one of from. Returns (nil, nil) when nothing matched.
	UpdateFields(ctx context.Context, id, owner primitive.ObjectID, from []Status, set bson.M) (*CropTarget, error)
	// Transition is the atomic check-and-set every status change goes
	// through: the filter pins the expected prior status so a lost race
	// matches zero documents. owner is nil for approver-side transitions.
	Transition(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, from []Status, set bson.M, unset bson.M) (*CropTarget, error)
	SoftDelete(ctx context.Context, id, owner primitive.ObjectID, deletedBy string) (*CropTarget, error)
	Summarize(ctx context.Context, match bson.M) (*Summary, error)
	SummarizeByDistrict(ctx context.Context, match bson.M) ([]DistrictBucket, error)
}

type CropTargetRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCropTargetRepository(mongodb *database.MongodbDB) CropTargetRepository {
	return &CropTargetRepositoryImpl{
		Collection: mongodb.DB.Collection("crop_targets"),
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

func statusFilter(from []Status) bson.M {
	var raw []string
	for _, s := range from {
		raw = append(raw, awaitingApproval(s)...)
	}
	return bson.M{"$in": raw}
}

func notDeleted() bson.M {
	return bson.M{"$ne": true}
}

func (r *CropTargetRepositoryImpl) Create(ctx context.Context, target *CropTarget) error {
	if target.ID.IsZero() {
		target.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	target.CreatedAt = now
	target.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, target)
	return wrapErr(err)
}

func (r *CropTargetRepositoryImpl) findOne(ctx context.Context, filter bson.M) (*CropTarget, error) {
	var target CropTarget
	var err error
	for attempt := 0; attempt <= readRetries; attempt++ {
		err = r.Collection.FindOne(ctx, filter).Decode(&target)
		if err == nil {
			return &target, nil
		}
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if !mongo.IsTimeout(err) && !mongo.IsNetworkError(err) {
			return nil, err
		}
	}
	return nil, wrapErr(err)
}

func (r *CropTargetRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*CropTarget, error) {
	return r.findOne(ctx, bson.M{"_id": id, "deleted": notDeleted()})
}

func (r *CropTargetRepositoryImpl) FindOwned(ctx context.Context, id, owner primitive.ObjectID) (*CropTarget, error) {
	return r.findOne(ctx, bson.M{"_id": id, "submitted_by": owner, "deleted": notDeleted()})
}

func (r *CropTargetRepositoryImpl) List(ctx context.Context, filter bson.M, limit, offset int64, sortBy string, sortOrder int) ([]CropTarget, error) {
	query := bson.M{"deleted": notDeleted()}
	for k, v := range filter {
		query[k] = v
	}

	if sortBy == "" {
		sortBy = "created_at"
	}
	if sortOrder == 0 {
		sortOrder = -1
	}

	findOptions := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: sortBy, Value: sortOrder}, {Key: "_id", Value: sortOrder}})

	cursor, err := r.Collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var targets []CropTarget
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, wrapErr(err)
	}
	return targets, nil
}

func (r *CropTargetRepositoryImpl) Count(ctx context.Context, filter bson.M) (int64, error) {
	query := bson.M{"deleted": notDeleted()}
	for k, v := range filter {
		query[k] = v
	}
	n, err := r.Collection.CountDocuments(ctx, query)
	return n, wrapErr(err)
}

func (r *CropTargetRepositoryImpl) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*CropTarget, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var target CropTarget
	err := r.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&target)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, wrapErr(err)
	}
	return &target, nil
}

func (r *CropTargetRepositoryImpl) UpdateFields(ctx context.Context, id, owner primitive.ObjectID, from []Status, set bson.M) (*CropTarget, error) {
	filter := bson.M{
		"_id":          id,
		"submitted_by": owner,
		"status":       statusFilter(from),
		"deleted":      notDeleted(),
	}

	set["updated_at"] = time.Now().UTC()
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (r *CropTargetRepositoryImpl) Transition(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, from []Status, set bson.M, unset bson.M) (*CropTarget, error) {
	filter := bson.M{
		"_id":     id,
		"status":  statusFilter(from),
		"deleted": notDeleted(),
	}
	if owner != nil {
		filter["submitted_by"] = *owner
	}

	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *CropTargetRepositoryImpl) SoftDelete(ctx context.Context, id, owner primitive.ObjectID, deletedBy string) (*CropTarget, error) {
	filter := bson.M{
		"_id":          id,
		"submitted_by": owner,
		"status":       statusFilter([]Status{StatusDraft}),
		"deleted":      notDeleted(),
	}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"deleted":    true,
		"deleted_at": now,
		"deleted_by": deletedBy,
		"updated_at": now,
	}}

	return r.findOneAndUpdate(ctx, filter, update)
}

// Summarize groups the filtered set by status in one aggregation pass; the
// service derives totals from the buckets.
func (r *CropTargetRepositoryImpl) Summarize(ctx context.Context, match bson.M) (*Summary, error) {
	query := bson.M{"deleted": notDeleted()}
	for k, v := range match {
		query[k] = v
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query}},
		{{Key: "$group", Value: bson.M{
			"_id":                 "$status",
			"count":               bson.M{"$sum": 1},
			"target_area":         bson.M{"$sum": "$target_area"},
			"cultivable_area":     bson.M{"$sum": "$cultivable_area"},
			"expected_production": bson.M{"$sum": "$expected_production"},
		}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var buckets []statusBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, wrapErr(err)
	}

	return summaryFromBuckets(buckets), nil
}

func (r *CropTargetRepositoryImpl) SummarizeByDistrict(ctx context.Context, match bson.M) ([]DistrictBucket, error) {
	query := bson.M{"deleted": notDeleted()}
	for k, v := range match {
		query[k] = v
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$district",
			"count":       bson.M{"$sum": 1},
			"target_area": bson.M{"$sum": "$target_area"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "target_area", Value: -1}}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer cursor.Close(ctx)

	var buckets []DistrictBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, wrapErr(err)
	}
	return buckets, nil
}

// summaryFromBuckets folds the per-status buckets into the dashboard view.
// Legacy "pending" rows fold into submitted.
func summaryFromBuckets(buckets []statusBucket) *Summary {
	s := &Summary{
		StatusCounts: make(map[string]int64),
		AreaByStatus: make(map[string]float64),
	}

	for _, b := range buckets {
		status := string(NormalizeStatus(b.Status))
		s.StatusCounts[status] += b.Count
		s.AreaByStatus[status] += b.TargetArea
		s.TotalTargets += b.Count
		s.TotalCultivableArea += b.CultivableArea

		switch Status(status) {
		case StatusApproved:
			s.ExpectedProduction += b.ExpectedProduction
			s.TotalTargetArea += b.TargetArea
		case StatusSubmitted:
			s.TotalTargetArea += b.TargetArea
		}
	}

	if s.TotalTargets > 0 {
		s.ApprovalRate = float64(s.StatusCounts[string(StatusApproved)]) / float64(s.TotalTargets) * 100
	}
	return s
}
