package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type productDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"productName"`
	Description  string               `bson:"productDescription"`
	Type         int                  `bson:"productType"`
	Quantity     int                  `bson:"productQuantity"`
	QuantitySold int                  `bson:"quantitySold"`
	Price        primitive.Decimal128 `bson:"price"`
	Image        string               `bson:"productImage"`
}

func (d productDoc) toDomain() (*domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", d.ID.Hex(), err)
	}
	return &domain.Product{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Description:  d.Description,
		Type:         domain.ProductType(d.Type),
		Quantity:     d.Quantity,
		QuantitySold: d.QuantitySold,
		Price:        price,
		Image:        d.Image,
	}, nil
}

type MongoProductRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	txn    bool
}

func NewMongoProductRepo(client *mongo.Client, db *mongo.Database, transactions bool) *MongoProductRepo {
	return &MongoProductRepo{client: client, coll: db.Collection(collProducts), txn: transactions}
}

func (r *MongoProductRepo) Create(ctx context.Context, p *domain.Product) error {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return err
	}
	doc := productDoc{
		ID:           primitive.NewObjectID(),
		Name:         p.Name,
		Description:  p.Description,
		Type:         int(p.Type),
		Quantity:     p.Quantity,
		QuantitySold: p.QuantitySold,
		Price:        price,
		Image:        p.Image,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *MongoProductRepo) Update(ctx context.Context, p *domain.Product) error {
	oid, err := objectID(p.ID, "product")
	if err != nil {
		return err
	}
	price, err := toDecimal128(p.Price)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"productName":        p.Name,
		"productDescription": p.Description,
		"productType":        int(p.Type),
		"productQuantity":    p.Quantity,
		"price":              price,
		"productImage":       p.Image,
	}})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.Errorf(domain.ErrNotFound, "product not found")
	}
	return nil
}

func (r *MongoProductRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id, "product")
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return doc.toDomain()
}

func (r *MongoProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id, "product")
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return doc.toDomain()
}

func (r *MongoProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, nil
}

func (r *MongoProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// CommitStock decrements each line with a conditional update that only matches while
// enough is on hand. Inside a transaction a failed line aborts the rest; without one,
// lines already applied are given back before returning.
func (r *MongoProductRepo) CommitStock(ctx context.Context, lines []domain.StockLine) error {
	if !r.txn {
		return r.commitLines(ctx, lines, true)
	}
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, r.commitLines(sc, lines, false)
	})
	return err
}

func (r *MongoProductRepo) commitLines(ctx context.Context, lines []domain.StockLine, compensate bool) error {
	applied := make([]domain.StockLine, 0, len(lines))
	for _, l := range lines {
		err := r.commitLine(ctx, l)
		if err != nil {
			if compensate && len(applied) > 0 {
				if rerr := r.ReleaseStock(context.WithoutCancel(ctx), applied); rerr != nil {
					logging.FromCtx(ctx).Error("stock rollback failed", "lines", len(applied), "err", rerr)
				}
			}
			return err
		}
		applied = append(applied, l)
	}
	return nil
}

func (r *MongoProductRepo) commitLine(ctx context.Context, l domain.StockLine) error {
	oid, err := primitive.ObjectIDFromHex(l.ProductID)
	if err != nil {
		return domain.Errorf(domain.ErrProductMissing, "Product not found")
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "productQuantity": bson.M{"$gte": l.Quantity}},
		bson.M{"$inc": bson.M{"productQuantity": -l.Quantity, "quantitySold": l.Quantity}},
	)
	if err != nil {
		return fmt.Errorf("commit stock for %s: %w", l.ProductID, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// nothing matched: either the product is gone or it is short
	var doc productDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Errorf(domain.ErrProductMissing, "Product not found")
	}
	if err != nil {
		return fmt.Errorf("load product %s: %w", l.ProductID, err)
	}
	return &domain.StockError{ProductID: l.ProductID, ProductName: doc.Name, Available: doc.Quantity, Requested: l.Quantity}
}

func (r *MongoProductRepo) ReleaseStock(ctx context.Context, lines []domain.StockLine) error {
	for _, l := range lines {
		oid, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			continue
		}
		update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
			{Key: "productQuantity", Value: bson.D{{Key: "$add", Value: bson.A{"$productQuantity", l.Quantity}}}},
			{Key: "quantitySold", Value: bson.D{{Key: "$max", Value: bson.A{0,
				bson.D{{Key: "$subtract", Value: bson.A{"$quantitySold", l.Quantity}}}}}}},
		}}}}
		if _, err := r.coll.UpdateByID(ctx, oid, update); err != nil {
			return fmt.Errorf("release stock for %s: %w", l.ProductID, err)
		}
	}
	return nil
}

var _ usecase.ProductRepo = (*MongoProductRepo)(nil)
