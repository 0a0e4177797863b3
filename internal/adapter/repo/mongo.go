package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

const (
	collProducts = "products"
	collUsers    = "users"
	collCarts    = "carts"
	collOrders   = "orders"
	collEvents   = "order_events"
)

// Connect dials MongoDB and pings it before returning.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on for uniqueness and ordering.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		collUsers: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		collCarts: {{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		collOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dateOrdered", Value: -1}}},
			{Keys: bson.D{{Key: "dateOrdered", Value: -1}}},
		},
		collEvents: {{
			Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "at", Value: 1}},
		}},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Store is the set of Mongo-backed repositories sharing one database.
type Store struct {
	Products *MongoProductRepo
	Users    *MongoUserRepo
	Carts    *MongoCartRepo
	Orders   *MongoOrderRepo
	Events   *MongoEventRepo
}

// NewStore wires the repositories. With transactions on, multi-line stock commits run
// in a session transaction, which needs a replica set.
func NewStore(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{
		Products: NewMongoProductRepo(client, db, transactions),
		Users:    NewMongoUserRepo(db),
		Carts:    NewMongoCartRepo(db),
		Orders:   NewMongoOrderRepo(db),
		Events:   NewMongoEventRepo(db),
	}
}

// objectID parses a hex id. Malformed ids are reported as not found.
func objectID(id, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.Errorf(domain.ErrNotFound, "%s not found", what)
	}
	return oid, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Errorf(domain.ErrNotFound, "%s not found", what)
	}
	return err
}

// toDecimal128 fails for amounts Decimal128 cannot hold exactly (more than 34
// significant digits); they are never rounded or zeroed.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err == nil {
		var back decimal.Decimal
		if back, err = decimal.NewFromString(v.String()); err == nil && !back.Equal(d) {
			err = errors.New("precision lost")
		}
	}
	if err != nil {
		return primitive.Decimal128{}, domain.Errorf(domain.ErrInvalidArgument, "Amount %s is out of range", d)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}
