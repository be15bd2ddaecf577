package mongostore

import (
	"context"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ReviewStore
// ============================================================================

func (s *Store) CreateReview(ctx context.Context, review *model.Review) error {
	return insertOne(ctx, s.col(ColReviews), review)
}

func (s *Store) GetReview(ctx context.Context, id string) (*model.Review, error) {
	return findOne[model.Review](ctx, s.col(ColReviews), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetReviewByPair(ctx context.Context, reviewerID, revieweeID string) (*model.Review, error) {
	return findOne[model.Review](ctx, s.col(ColReviews), bson.D{
		{Key: "reviewer_id", Value: reviewerID},
		{Key: "reviewee_id", Value: revieweeID},
	})
}

func (s *Store) ListReviewsByReviewee(ctx context.Context, revieweeID string) ([]*model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Review](ctx, s.col(ColReviews), bson.D{{Key: "reviewee_id", Value: revieweeID}}, opts)
}

func (s *Store) ListReviewsByReviewer(ctx context.Context, reviewerID string) ([]*model.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Review](ctx, s.col(ColReviews), bson.D{{Key: "reviewer_id", Value: reviewerID}}, opts)
}

// AverageRating 聚合某用户收到的平均评分和评价数；没有评价时返回 (nil, nil)
func (s *Store) AverageRating(ctx context.Context, revieweeID string) (*model.RatingSummary, error) {
	pipeline := mongoArr(
		bson.D{{Key: "$match", Value: bson.D{{Key: "reviewee_id", Value: revieweeID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$reviewee_id"},
			{Key: "avg_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	)

	cursor, err := s.col(ColReviews).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var summary model.RatingSummary
	if err := cursor.Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColReviews), id)
}

func mongoArr(docs ...bson.D) bson.A {
	arr := make(bson.A, 0, len(docs))
	for _, d := range docs {
		arr = append(arr, d)
	}
	return arr
}
