package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// userRepo implements domain.UserRepository on a tenant's users collection.
type userRepo struct {
	coll *mongo.Collection
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &user, nil
}

func (r *userRepo) Insert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewConflictError("email already registered")
		}
		return domain.NewDatabaseUnavailableError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (r *userRepo) SetOnline(ctx context.Context, email string, online bool) error {
	set := bson.M{"is_online": online, "updated_at": time.Now().UTC()}
	if online {
		set["last_heartbeat"] = time.Now().UTC()
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	return nil
}

func (r *userRepo) Heartbeat(ctx context.Context, email string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{
			"is_online":      true,
			"last_heartbeat": time.Now().UTC(),
		},
	})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	return nil
}

// ToggleFavorite flips membership of leadID in the user's favorites set and
// reports the resulting membership.
func (r *userRepo) ToggleFavorite(ctx context.Context, email string, leadID bson.ObjectID) (bool, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email},
		options.FindOne().SetProjection(bson.M{"favorites": 1})).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, domain.NewNotFoundError("user")
	}
	if err != nil {
		return false, domain.NewDatabaseUnavailableError(err)
	}

	isFavorite := false
	for _, id := range user.Favorites {
		if id == leadID {
			isFavorite = true
			break
		}
	}

	var update bson.M
	if isFavorite {
		update = bson.M{"$pull": bson.M{"favorites": leadID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"favorites": leadID}}
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
		return false, domain.NewDatabaseUnavailableError(err)
	}
	return !isFavorite, nil
}

func (r *userRepo) SetGoogleCalendar(ctx context.Context, email string, gc *models.GoogleCalendar) error {
	var update bson.M
	if gc == nil {
		update = bson.M{
			"$unset": bson.M{"google_calendar": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{
			"$set": bson.M{
				"google_calendar": gc,
				"updated_at":      time.Now().UTC(),
			},
		}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	if res.MatchedCount == 0 {
		return domain.NewNotFoundError("user")
	}
	return nil
}

func (r *userRepo) ListAgents(ctx context.Context) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"role": models.RoleAgent},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	defer cursor.Close(ctx)

	agents := []models.User{}
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return agents, nil
}

// EnsureUserIndexes creates the unique email index for a tenant.
func EnsureUserIndexes(ctx context.Context, t *Tenant) error {
	_, err := t.db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	return nil
}
