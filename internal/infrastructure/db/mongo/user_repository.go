package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on MongoDB. Counter, lock and
// token mutations are single-document updates so concurrent requests for the
// same account never lose writes.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	FirstName     string             `bson:"first_name"`
	LastName      string             `bson:"last_name"`
	Email         string             `bson:"email"`
	PasswordHash  string             `bson:"password_hash"`
	Role          string             `bson:"role"`
	IsActive      bool               `bson:"is_active"`
	LastLogin     *time.Time         `bson:"last_login,omitempty"`
	LoginAttempts int                `bson:"login_attempts"`
	LockUntil     *time.Time         `bson:"lock_until,omitempty"`
	RefreshTokens []string           `bson:"refresh_tokens"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	tokens := u.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}
	return userDocument{
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         domain.NormalizeEmail(u.Email),
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		LastLogin:     u.LastLogin,
		LoginAttempts: u.LoginAttempts,
		LockUntil:     u.LockUntil,
		RefreshTokens: tokens,
		CreatedAt:     u.CreatedAt.UTC(),
		UpdatedAt:     u.UpdatedAt.UTC(),
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:            d.ID.Hex(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		Role:          domain.Role(d.Role),
		IsActive:      d.IsActive,
		LastLogin:     d.LastLogin,
		LoginAttempts: d.LoginAttempts,
		LockUntil:     d.LockUntil,
		RefreshTokens: d.RefreshTokens,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// objectID maps malformed ids to ErrUserNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrUserNotFound
	}
	return oid, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// findOneAndUpdate applies update and returns the post-image.
func (r *UserRepository) findOneAndUpdate(ctx context.Context, id string, update interface{}) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

// updateOne applies update to one account and maps a zero match to notFound.
func (r *UserRepository) updateOne(ctx context.Context, filter bson.M, update interface{}, notFound error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// RecordLoginFailure runs the lockout transition server-side in one update.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, id, loginFailurePipeline(policy, now))
}

// loginFailurePipeline mirrors domain.LockoutPolicy.NextFailure as an
// aggregation-pipeline update.
func loginFailurePipeline(policy domain.LockoutPolicy, now time.Time) mongo.Pipeline {
	policy = policy.Normalize()
	now = now.UTC()

	hasLock := bson.M{"$eq": bson.A{bson.M{"$type": "$lock_until"}, "date"}}
	nextAttempts := bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$login_attempts", 0}}, 1}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"_lock_expired": bson.M{"$and": bson.A{hasLock, bson.M{"$lte": bson.A{"$lock_until", now}}}},
			"_locked":       bson.M{"$and": bson.A{hasLock, bson.M{"$gt": bson.A{"$lock_until", now}}}},
		}}},
		{{Key: "$set", Value: bson.M{
			"login_attempts": bson.M{"$cond": bson.A{"$_lock_expired", 1, nextAttempts}},
			"lock_until": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": "$_lock_expired", "then": "$$REMOVE"},
					bson.M{
						"case": bson.M{"$and": bson.A{
							bson.M{"$not": bson.A{"$_locked"}},
							bson.M{"$gte": bson.A{nextAttempts, policy.MaxAttempts}},
						}},
						"then": now.Add(policy.LockDuration),
					},
				},
				"default": "$lock_until",
			}},
			"updated_at": now,
		}}},
		{{Key: "$unset", Value: bson.A{"_lock_expired", "_locked"}}},
	}
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id, refreshToken string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	now = now.UTC()
	update := bson.M{
		"$set":   bson.M{"login_attempts": 0, "last_login": now, "updated_at": now},
		"$unset": bson.M{"lock_until": ""},
		"$push":  bson.M{"refresh_tokens": pushCapped(refreshToken)},
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, update, domain.ErrUserNotFound)
}

func (r *UserRepository) AddRefreshToken(ctx context.Context, id, token string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":  bson.M{"updated_at": now.UTC()},
		"$push": bson.M{"refresh_tokens": pushCapped(token)},
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, update, domain.ErrUserNotFound)
}

// pushCapped appends token and keeps only the newest domain.MaxRefreshTokens.
func pushCapped(token string) bson.M {
	return bson.M{"$each": bson.A{token}, "$slice": -domain.MaxRefreshTokens}
}

// ReplaceRefreshToken rotates oldToken only if it is still stored, so a
// token can be redeemed at most once.
func (r *UserRepository) ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrInvalidToken
	}
	filter := bson.M{"_id": oid, "refresh_tokens": oldToken}
	return r.updateOne(ctx, filter, replaceTokenPipeline(oldToken, newToken, now), domain.ErrInvalidToken)
}

func replaceTokenPipeline(oldToken, newToken string, now time.Time) mongo.Pipeline {
	kept := bson.M{"$filter": bson.M{
		"input": "$refresh_tokens",
		"as":    "t",
		"cond":  bson.M{"$ne": bson.A{"$$t", oldToken}},
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"refresh_tokens": bson.M{"$slice": bson.A{
				bson.M{"$concatArrays": bson.A{kept, bson.A{newToken}}},
				-domain.MaxRefreshTokens,
			}},
			"updated_at": now.UTC(),
		}}},
	}
}

func (r *UserRepository) RemoveRefreshToken(ctx context.Context, id, token string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":  bson.M{"updated_at": now.UTC()},
		"$pull": bson.M{"refresh_tokens": token},
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, update, domain.ErrUserNotFound)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, changes ports.ProfileChanges, now time.Time) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": profileSet(changes, now)})
}

func profileSet(changes ports.ProfileChanges, now time.Time) bson.M {
	set := bson.M{"updated_at": now.UTC()}
	if changes.FirstName != nil {
		set["first_name"] = *changes.FirstName
	}
	if changes.LastName != nil {
		set["last_name"] = *changes.LastName
	}
	if changes.Email != nil {
		set["email"] = domain.NormalizeEmail(*changes.Email)
	}
	return set
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"password_hash":  passwordHash,
		"refresh_tokens": bson.A{},
		"updated_at":     now.UTC(),
	}}
	return r.updateOne(ctx, bson.M{"_id": oid}, update, domain.ErrUserNotFound)
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) (*domain.User, error) {
	set := bson.M{"is_active": active, "updated_at": now.UTC()}
	if !active {
		set["refresh_tokens"] = bson.A{}
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role domain.Role, now time.Time) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"role": string(role), "updated_at": now.UTC()}})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List returns one page of users, newest first, plus the unpaged total.
func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildListFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	users, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func buildListFilter(f ports.ListUsersFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"first_name": re},
			bson.M{"last_name": re},
			bson.M{"email": re},
		}
	}
	return filter
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.User, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// Counts computes every dashboard counter in one aggregation.
func (r *UserRepository) Counts(ctx context.Context) (*ports.UserCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"total":  bson.M{"$sum": 1},
			"active": bson.M{"$sum": bson.M{"$cond": bson.A{"$is_active", 1, 0}}},
			"admins": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$role", string(domain.RoleAdmin)}}, 1, 0}}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total  int64 `bson:"total"`
		Active int64 `bson:"active"`
		Admins int64 `bson:"admins"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}

	counts := &ports.UserCounts{}
	if len(rows) > 0 {
		counts.Total, counts.Active, counts.Admins = rows[0].Total, rows[0].Active, rows[0].Admins
	}
	return counts, nil
}

func (r *UserRepository) Recent(ctx context.Context, limit int) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// EnsureIndexes creates the unique email index and the list/filter indexes.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
