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

// leadRepo implements domain.LeadRepository on a tenant's leads collection.
//
// Lookups that match nothing return (nil, nil); callers decide whether that
// is a NotFound or a verify-by-reread situation. Infrastructure failures are
// wrapped as DatabaseUnavailable.
type leadRepo struct {
	coll *mongo.Collection
}

// scopeFilter builds the id filter, restricted to the actor's own leads for
// non-admins. The same filter shape serves ownership checks on every
// mutation, so "absent" and "not owned" are indistinguishable to callers.
func scopeFilter(id bson.ObjectID, scope models.OwnerScope) bson.M {
	f := bson.M{"_id": id}
	if !scope.Admin {
		f["assigned_to"] = scope.Email
	}
	return f
}

func (r *leadRepo) Insert(ctx context.Context, lead *models.Lead) error {
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	if lead.Engagements == nil {
		lead.Engagements = []models.Engagement{}
	}
	if lead.Meetings == nil {
		lead.Meetings = []models.Meeting{}
	}

	res, err := r.coll.InsertOne(ctx, lead)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race against the unique dedupe index.
			return domain.NewConflictError("lead already exists")
		}
		return domain.NewDatabaseUnavailableError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		lead.ID = oid
	}
	return nil
}

func (r *leadRepo) FindByID(ctx context.Context, id bson.ObjectID, scope models.OwnerScope) (*models.Lead, error) {
	var lead models.Lead
	err := r.coll.FindOne(ctx, scopeFilter(id, scope)).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &lead, nil
}

func (r *leadRepo) FindByExternalID(ctx context.Context, source, externalQueryID string) (*models.Lead, error) {
	filter := bson.M{
		"source":                          source,
		"meta_data." + models.MetaExternalQueryID: externalQueryID,
	}

	var lead models.Lead
	err := r.coll.FindOne(ctx, filter).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &lead, nil
}

func (r *leadRepo) List(ctx context.Context, f models.LeadFilter) ([]models.Lead, int64, error) {
	filter := bson.M{}
	// The ownership scope always wins; the assignee filter only narrows
	// within an admin's unrestricted view.
	if f.Scope.Admin {
		if f.AssignedTo != "" {
			filter["assigned_to"] = f.AssignedTo
		}
	} else {
		filter["assigned_to"] = f.Scope.Email
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Source != "" {
		filter["source"] = f.Source
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": f.Search, "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, domain.NewDatabaseUnavailableError(err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, domain.NewDatabaseUnavailableError(err)
	}
	defer cursor.Close(ctx)

	leads := []models.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, 0, domain.NewDatabaseUnavailableError(err)
	}
	return leads, total, nil
}

func (r *leadRepo) SetStatus(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, status models.LeadStatus) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, scopeFilter(id, scope), bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, domain.NewDatabaseUnavailableError(err)
	}
	return res.MatchedCount, nil
}

// returnAfter asks FindOneAndUpdate for the post-update document.
func returnAfter() options.Lister[options.FindOneAndUpdateOptions] {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (r *leadRepo) AppendEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error) {
	update := bson.M{
		"$push": bson.M{"engagements": e},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, scopeFilter(id, scope), update)
}

func (r *leadRepo) UpdateEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error) {
	filter := scopeFilter(id, scope)
	filter["engagements.id"] = e.ID

	// Positional update of the matched array element only; concurrent edits
	// to a different engagement on the same lead are unaffected.
	update := bson.M{
		"$set": bson.M{
			"engagements.$.date":       e.Date,
			"engagements.$.type":       e.Type,
			"engagements.$.note":       e.Note,
			"engagements.$.updated_at": e.UpdatedAt,
			"engagements.$.updated_by": e.UpdatedBy,
			"updated_at":               time.Now().UTC(),
		},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *leadRepo) RemoveEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, engagementID string) (*models.Lead, error) {
	update := bson.M{
		"$pull": bson.M{"engagements": bson.M{"id": engagementID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, scopeFilter(id, scope), update)
}

func (r *leadRepo) AppendMeeting(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, m models.Meeting) (*models.Lead, error) {
	update := bson.M{
		"$push": bson.M{"meetings": m},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, scopeFilter(id, scope), update)
}

func (r *leadRepo) Assign(ctx context.Context, id bson.ObjectID, agentEmail string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"assigned_to": agentEmail,
			"updated_at":  time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, domain.NewDatabaseUnavailableError(err)
	}
	return res.MatchedCount, nil
}

func (r *leadRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Lead, error) {
	var lead models.Lead
	err := r.coll.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// The write may still have landed; the service layer re-reads to
		// distinguish a missed match from a driver-reported-empty result.
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &lead, nil
}

// EnsureIndexes creates the dedupe index backing ingestion idempotence.
func EnsureLeadIndexes(ctx context.Context, t *Tenant) error {
	_, err := t.db.Collection(collLeads).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "source", Value: 1},
			{Key: "meta_data." + models.MetaExternalQueryID, Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"meta_data." + models.MetaExternalQueryID: bson.M{"$exists": true},
			}),
	})
	if err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	return nil
}
