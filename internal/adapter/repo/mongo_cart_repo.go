package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

// One document per (user, product) line.
type cartDoc struct {
	UserID    string    `bson:"userId"`
	ProductID string    `bson:"productId"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"addedAt"`
}

func (d cartDoc) toDomain() domain.CartLine {
	return domain.CartLine{UserID: d.UserID, ProductID: d.ProductID, Quantity: d.Quantity, AddedAt: d.AddedAt}
}

type MongoCartRepo struct{ coll *mongo.Collection }

func NewMongoCartRepo(db *mongo.Database) *MongoCartRepo {
	return &MongoCartRepo{coll: db.Collection(collCarts)}
}

func (r *MongoCartRepo) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	var docs []cartDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	out := make([]domain.CartLine, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoCartRepo) Line(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	var doc cartDoc
	err := r.coll.FindOne(ctx, bson.M{"userId": userID, "productId": productID}).Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "cart line")
	}
	line := doc.toDomain()
	return &line, nil
}

// Put upserts on the unique (userId, productId) index. addedAt is only set on insert.
func (r *MongoCartRepo) Put(ctx context.Context, line domain.CartLine) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": line.UserID, "productId": line.ProductID},
		bson.M{
			"$set":         bson.M{"quantity": line.Quantity},
			"$setOnInsert": bson.M{"addedAt": line.AddedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put cart line: %w", err)
	}
	return nil
}

func (r *MongoCartRepo) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID}); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (r *MongoCartRepo) Clear(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

var _ usecase.CartRepo = (*MongoCartRepo)(nil)
