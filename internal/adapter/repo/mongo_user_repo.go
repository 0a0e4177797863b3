package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type userDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	FirstName  string             `bson:"firstName"`
	MiddleName string             `bson:"middleName,omitempty"`
	LastName   string             `bson:"lastName"`
	Role       string             `bson:"userType"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		MiddleName:   d.MiddleName,
		LastName:     d.LastName,
		Role:         domain.Role(d.Role),
		Email:        d.Email,
		PasswordHash: d.Password,
	}
}

type MongoUserRepo struct{ coll *mongo.Collection }

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(collUsers)}
}

func (r *MongoUserRepo) Create(ctx context.Context, u *domain.User) error {
	doc := userDoc{
		ID:         primitive.NewObjectID(),
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Role:       string(u.Role),
		Email:      u.Email,
		Password:   u.PasswordHash,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Errorf(domain.ErrConflict, "email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "user")
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, "user")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}
	docs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID.Hex()] = d.toDomain()
	}
	return out, nil
}

func (r *MongoUserRepo) List(ctx context.Context) ([]domain.User, error) {
	docs, err := r.find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M) ([]userDoc, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return docs, nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, "user")
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.Errorf(domain.ErrNotFound, "user not found")
	}
	return nil
}

var _ usecase.UserRepo = (*MongoUserRepo)(nil)
