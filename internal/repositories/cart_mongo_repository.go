package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokoshop/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartTTL drops carts nobody touched for 90 days.
const cartTTL = 90 * 24 * time.Hour

// MongoCartRepository stores carts as documents in the "carts" collection.
type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection("carts"),
	}
}

// CreateIndexes enforces one cart per user and expires abandoned carts.
func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(cartTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoCartRepository) findOne(ctx context.Context, filter bson.M, what string) (*models.Cart, error) {
	var cart models.Cart
	if err := m.collection.FindOne(ctx, filter).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (m *MongoCartRepository) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	return m.findOne(ctx, bson.M{"user_id": userID}, "cart for user "+userID)
}

func (m *MongoCartRepository) GetByID(ctx context.Context, id, userID string) (*models.Cart, error) {
	return m.findOne(ctx, bson.M{"_id": id, "user_id": userID}, "cart with ID "+id)
}

// Save replaces the cart document, inserting it when absent.
func (m *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *MongoCartRepository) Delete(ctx context.Context, cart *models.Cart) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": cart.ID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
