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

// Projection of order events consumed from the broker. _id is the event id, so
// redeliveries collapse onto the same document.
type eventDoc struct {
	ID          string               `bson:"_id"`
	Type        string               `bson:"type"`
	OrderID     string               `bson:"orderId"`
	UserID      string               `bson:"userId"`
	From        int                  `bson:"from"`
	To          int                  `bson:"to"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	At          time.Time            `bson:"at"`
}

type MongoEventRepo struct{ coll *mongo.Collection }

func NewMongoEventRepo(db *mongo.Database) *MongoEventRepo {
	return &MongoEventRepo{coll: db.Collection(collEvents)}
}

func (r *MongoEventRepo) Append(ctx context.Context, ev domain.OrderEvent) error {
	id := ev.ID
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	total, err := toDecimal128(ev.TotalAmount)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, eventDoc{
		ID:          id,
		Type:        string(ev.Type),
		OrderID:     ev.OrderID,
		UserID:      ev.UserID,
		From:        int(ev.From),
		To:          int(ev.To),
		TotalAmount: total,
		At:          ev.At,
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("append order event: %w", err)
	}
	return nil
}

func (r *MongoEventRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	cur, err := r.coll.Find(ctx, bson.M{"orderId": orderID}, options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find order events: %w", err)
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode order events: %w", err)
	}
	out := make([]domain.OrderEvent, 0, len(docs))
	for _, d := range docs {
		total, err := fromDecimal128(d.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("order event %s: %w", d.ID, err)
		}
		out = append(out, domain.OrderEvent{
			ID:          d.ID,
			Type:        domain.EventType(d.Type),
			OrderID:     d.OrderID,
			UserID:      d.UserID,
			From:        domain.Status(d.From),
			To:          domain.Status(d.To),
			TotalAmount: total,
			At:          d.At,
		})
	}
	return out, nil
}

var _ usecase.OrderHistoryRepo = (*MongoEventRepo)(nil)
