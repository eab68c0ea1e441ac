package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GDGAOU/notification-service/internal/model"
)

// Connect opens a Mongo client and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

type NotificationRepo struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) *NotificationRepo {
	return &NotificationRepo{
		col: db.Collection("notifications"),
	}
}

var _ Store = (*NotificationRepo)(nil)

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	oid := primitive.NewObjectID()
	n.ID = oid.Hex()
	n.Read = false
	n.CreatedAt = time.Now().UTC()

	doc := bson.M{
		"_id":          oid,
		"recipient_id": n.RecipientID,
		"type":         n.Type,
		"message":      n.Message,
		"metadata":     n.Metadata,
		"read":         n.Read,
		"created_at":   n.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: insert notification: %v", ErrPersistence, err)
	}
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, f ListFilter) ([]model.Notification, error) {
	filter := bson.M{"recipient_id": recipientID}
	if f.UnreadOnly {
		filter["read"] = false
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID          primitive.ObjectID `bson:"_id"`
		RecipientID string             `bson:"recipient_id"`
		Type        model.Type         `bson:"type"`
		Message     string             `bson:"message"`
		Metadata    map[string]any     `bson:"metadata"`
		Read        bool               `bson:"read"`
		CreatedAt   time.Time          `bson:"created_at"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode notifications: %v", ErrPersistence, err)
	}
	out := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.Notification{
			ID:          d.ID.Hex(),
			RecipientID: d.RecipientID,
			Type:        d.Type,
			Message:     d.Message,
			Metadata:    d.Metadata,
			Read:        d.Read,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out, nil
}

// MarkRead flips read to true for the given ids that belong to recipientID.
// Unknown ids, foreign ids, and already-read notifications are no-ops.
func (r *NotificationRepo) MarkRead(ctx context.Context, ids []string, recipientID string) error {
	if len(ids) == 0 {
		return nil
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue // malformed id: ignore, same as unknown
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil
	}
	filter := bson.M{
		"_id":          bson.M{"$in": oids},
		"recipient_id": recipientID,
	}
	update := bson.M{"$set": bson.M{"read": true}}
	if _, err := r.col.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("%w: mark read: %v", ErrPersistence, err)
	}
	return nil
}
