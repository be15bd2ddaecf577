package mongostore

import (
	"context"
	"time"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// RequestStore
// ============================================================================

func (s *Store) CreateRequest(ctx context.Context, req *model.Request) error {
	return insertOne(ctx, s.col(ColRequests), req)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	return findOne[model.Request](ctx, s.col(ColRequests), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListRequestsByRequestee(ctx context.Context, requesteeID string) ([]*model.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Request](ctx, s.col(ColRequests), bson.D{{Key: "requestee_id", Value: requesteeID}}, opts)
}

func (s *Store) ListRequestsByRequester(ctx context.Context, requesterID string) ([]*model.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Request](ctx, s.col(ColRequests), bson.D{{Key: "requester_id", Value: requesterID}}, opts)
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]*model.Request, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "requester_id", Value: userID}},
		bson.D{{Key: "requestee_id", Value: userID}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Request](ctx, s.col(ColRequests), filter, opts)
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	return updateFields(ctx, s.col(ColRequests), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColRequests), id)
}
