package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// integrationRepo implements domain.IntegrationRepository.
type integrationRepo struct {
	coll *mongo.Collection
}

func (r *integrationRepo) ActiveBySource(ctx context.Context, source string) (*models.IntegrationAccount, error) {
	var acct models.IntegrationAccount
	err := r.coll.FindOne(ctx, bson.M{"source": source, "is_active": true}).Decode(&acct)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &acct, nil
}

func (r *integrationRepo) List(ctx context.Context) ([]models.IntegrationAccount, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "source", Value: 1}}))
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	defer cursor.Close(ctx)

	accounts := []models.IntegrationAccount{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return accounts, nil
}

func (r *integrationRepo) SetActive(ctx context.Context, id bson.ObjectID, active bool) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("integration account")
	}
	return nil
}

// AdvanceLastSync moves the polling watermark forward. Callers invoke this
// only after the whole window processed cleanly.
func (r *integrationRepo) AdvanceLastSync(ctx context.Context, id bson.ObjectID, ts time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"last_sync":  ts,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("integration account")
	}
	return nil
}
