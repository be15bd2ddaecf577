package mongostore

import (
	"context"

	"restudied/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ReportStore
// ============================================================================

func (s *Store) CreateReport(ctx context.Context, report *model.Report) error {
	return insertOne(ctx, s.col(ColReports), report)
}

func (s *Store) GetReport(ctx context.Context, id string) (*model.Report, error) {
	return findOne[model.Report](ctx, s.col(ColReports), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListReportsByUser(ctx context.Context, reportedUserID string) ([]*model.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Report](ctx, s.col(ColReports), bson.D{{Key: "reported_user_id", Value: reportedUserID}}, opts)
}

func (s *Store) ListReportsByItem(ctx context.Context, itemID string) ([]*model.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Report](ctx, s.col(ColReports), bson.D{{Key: "item_id", Value: itemID}}, opts)
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColReports), id)
}
