package store

import (
	"context"
	"sort"
	"time"

	"civicbridge-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIssueStore implements IssueStore against a MongoDB collection.
// Per-issue atomicity comes from MongoDB's single-document update
// guarantees: status+history go out in one UpdateOne, set membership uses
// $addToSet/$pull.
type MongoIssueStore struct {
	collection *mongo.Collection
}

func NewMongoIssueStore(collection *mongo.Collection) *MongoIssueStore {
	return &MongoIssueStore{collection: collection}
}

// EnsureIndexes creates the indexes the listing and filter paths rely on.
func (s *MongoIssueStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (f Filter) toBson() bson.M {
	query := bson.M{}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Severity != "" {
		query["severity"] = f.Severity
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	return query
}

func (s *MongoIssueStore) Find(ctx context.Context, filter Filter, sortBy Sort) ([]models.Issue, error) {
	sortOptions := bson.D{{Key: "createdAt", Value: -1}}
	if sortBy == Oldest {
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	}

	cursor, err := s.collection.Find(ctx, filter.toBson(), options.Find().SetSort(sortOptions))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}

	if sortBy == MostUpvoted {
		sortMostUpvoted(issues)
	}

	return issues, nil
}

// sortMostUpvoted orders by upvote count descending. Upvote count lives in
// an embedded array, so it is sorted in memory; the stable sort over the
// createdAt-descending base ordering keeps newest-first as the tie-break.
func sortMostUpvoted(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return len(issues[i].Upvotes) > len(issues[j].Upvotes)
	})
}

func (s *MongoIssueStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, issue)
	return err
}

func (s *MongoIssueStore) AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusHistoryEntry, resolutionImage *string, resolvedAt *time.Time) (*models.Issue, error) {
	set := bson.M{"status": entry.Status}
	if resolutionImage != nil {
		set["resolutionImage"] = resolutionImage
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if resolvedAt != nil {
		// Set resolvedAt only while it is still null; a concurrent first
		// resolution keeps its earlier timestamp.
		set["resolvedAt"] = resolvedAt
		var issue models.Issue
		err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "resolvedAt": nil}, update, opts).Decode(&issue)
		if err == nil {
			return &issue, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		delete(set, "resolvedAt")
	}

	var issue models.Issue
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) AddUpvote(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"upvotes": userID}},
		opts,
	).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) SetSatisfaction(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID, satisfied bool) (*models.Issue, error) {
	var update bson.M
	if satisfied {
		update = bson.M{"$addToSet": bson.M{"satisfiedBy": userID}}
	} else {
		update = bson.M{"$pull": bson.M{"satisfiedBy": userID}}
	}

	// The status guard rides in the filter so the check and the set
	// mutation are one atomic document update.
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": []models.IssueStatus{models.Resolved, models.Verified}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue)
	if err == nil {
		return &issue, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Distinguish a missing issue from one in the wrong state.
	count, countErr := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, countErr
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidState
}

func (s *MongoIssueStore) SetLocationNames(ctx context.Context, id primitive.ObjectID, city, state *string) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"location.city": city, "location.state": state}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
