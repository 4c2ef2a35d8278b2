package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/freshgrocers/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository keeps the append-only side records of orders: audit
// entries and the notification outbox.
type MongoRepository struct {
	client        *mongo.Client
	audit         *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri is not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	return &MongoRepository{
		client:        client,
		audit:         db.Collection(cfg.Collection),
		notifications: db.Collection(cfg.NotificationCollection),
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditLog records one state change made by a service.
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entity_id"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if _, err := m.audit.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Notification is an outbox record of a customer message (sms or email).
type Notification struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Channel   string    `bson:"channel" json:"channel"`
	Recipient string    `bson:"recipient" json:"recipient"`
	Subject   string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Message   string    `bson:"message" json:"message"`
	OrderID   string    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Delivered bool      `bson:"delivered" json:"delivered"`
	Error     string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) SaveNotification(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := m.notifications.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// OrderHistory is everything recorded about one order after it was placed.
type OrderHistory struct {
	OrderID       string          `json:"order_id"`
	Audit         []*AuditLog     `json:"audit"`
	Notifications []*Notification `json:"notifications"`
}

func (m *MongoRepository) OrderHistory(ctx context.Context, orderID string) (*OrderHistory, error) {
	history := &OrderHistory{
		OrderID:       orderID,
		Audit:         []*AuditLog{},
		Notifications: []*Notification{},
	}
	oldestFirst := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := m.audit.Find(ctx, bson.M{"entity_id": orderID}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	if err = cursor.All(ctx, &history.Audit); err != nil {
		return nil, fmt.Errorf("failed to decode audit log: %w", err)
	}

	cursor, err = m.notifications.Find(ctx, bson.M{"order_id": orderID}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	if err = cursor.All(ctx, &history.Notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return history, nil
}
