package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type orderItemDoc struct {
	ProductID string               `bson:"productId"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      string               `bson:"userId"`
	Items       []orderItemDoc       `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	Status      int                  `bson:"orderStatus"`
	DateOrdered time.Time            `bson:"dateOrdered"`
	Time        string               `bson:"time"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (d orderDoc) toDomain() (domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		price, err := fromDecimal128(it.UnitPrice)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: %w", d.ID.Hex(), err)
		}
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: price})
	}
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", d.ID.Hex(), err)
	}
	return domain.Order{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Items:       items,
		TotalAmount: total,
		Status:      domain.Status(d.Status),
		CreatedAt:   d.DateOrdered,
		Time:        d.Time,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type MongoOrderRepo struct{ coll *mongo.Collection }

func NewMongoOrderRepo(db *mongo.Database) *MongoOrderRepo {
	return &MongoOrderRepo{coll: db.Collection(collOrders)}
}

func (r *MongoOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return err
	}
	doc := orderDoc{
		ID:          primitive.NewObjectID(),
		UserID:      o.UserID,
		Items:       make([]orderItemDoc, 0, len(o.Items)),
		TotalAmount: total,
		Status:      int(o.Status),
		DateOrdered: o.CreatedAt,
		Time:        o.Time,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, it := range o.Items {
		price, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return err
		}
		doc.Items = append(doc.Items, orderItemDoc{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: price})
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = doc.ID.Hex()
	return nil
}

func (r *MongoOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id, "order")
	if err != nil {
		return nil, err
	}
	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "order")
	}
	o, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MongoOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoOrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoOrderRepo) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateOrdered", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *MongoOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "orderStatus": int(from)},
		bson.M{"$set": bson.M{"orderStatus": int(to), "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	// no match: either not found or the status moved on
	return res.MatchedCount > 0, nil
}

var _ usecase.OrderRepo = (*MongoOrderRepo)(nil)
