package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/cart/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Prices are stored as decimal strings so no precision is lost in BSON doubles.
type lineDocument struct {
	ProductID         string  `bson:"product_id"`
	Name              string  `bson:"name"`
	UnitPriceCurrent  string  `bson:"unit_price_current"`
	UnitPricePrevious *string `bson:"unit_price_previous,omitempty"`
	Quantity          int     `bson:"quantity"`
	ImageURL          string  `bson:"image_url"`
}

type cartDocument struct {
	OwnerID   string         `bson:"owner_id"`
	Lines     []lineDocument `bson:"lines"`
	CreatedAt time.Time      `bson:"created_at"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDocument(doc)
}

func (m *MongoRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	doc := toDocument(cart)
	filter := bson.M{"owner_id": cart.OwnerID}
	update := bson.M{
		"$set": bson.M{
			"lines":      doc.Lines,
			"updated_at": doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": doc.CreatedAt,
		},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, ownerID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}

func toDocument(cart *domain.Cart) cartDocument {
	doc := cartDocument{
		OwnerID:   cart.OwnerID,
		Lines:     make([]lineDocument, 0, len(cart.Lines)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, l := range cart.Lines {
		ld := lineDocument{
			ProductID:        l.ProductID,
			Name:             l.Name,
			UnitPriceCurrent: l.UnitPriceCurrent.String(),
			Quantity:         l.Quantity,
			ImageURL:         l.ImageURL,
		}
		if l.UnitPricePrevious != nil {
			prev := l.UnitPricePrevious.String()
			ld.UnitPricePrevious = &prev
		}
		doc.Lines = append(doc.Lines, ld)
	}
	return doc
}

func fromDocument(doc cartDocument) (*domain.Cart, error) {
	cart := &domain.Cart{
		OwnerID:   doc.OwnerID,
		Lines:     make([]domain.CartLine, 0, len(doc.Lines)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, ld := range doc.Lines {
		price, err := decimal.NewFromString(ld.UnitPriceCurrent)
		if err != nil {
			return nil, fmt.Errorf("invalid price for product %s: %w", ld.ProductID, err)
		}
		l := domain.CartLine{
			ProductID:        ld.ProductID,
			Name:             ld.Name,
			UnitPriceCurrent: price,
			Quantity:         ld.Quantity,
			ImageURL:         ld.ImageURL,
		}
		if ld.UnitPricePrevious != nil {
			prev, err := decimal.NewFromString(*ld.UnitPricePrevious)
			if err != nil {
				return nil, fmt.Errorf("invalid previous price for product %s: %w", ld.ProductID, err)
			}
			l.UnitPricePrevious = &prev
		}
		cart.Lines = append(cart.Lines, l)
	}
	return cart, nil
}
