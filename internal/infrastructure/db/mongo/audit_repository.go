package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openhms/hms-portal/internal/core/domain"
)

const (
	auditCollection = "auth_events"
	auditRetention  = 90 * 24 * time.Hour
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	ID               string    `bson:"_id"`
	Type             string    `bson:"type"`
	Username         string    `bson:"username,omitempty"`
	TokenFingerprint string    `bson:"token_fingerprint,omitempty"`
	Path             string    `bson:"path,omitempty"`
	Detail           string    `bson:"detail,omitempty"`
	At               time.Time `bson:"at"`
	RecordedAt       time.Time `bson:"recorded_at"`
}

// InsertEvent stores one event. Re-delivery of the same event id is ignored.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	doc := mongoAuthEvent{
		ID:               event.ID,
		Type:             string(event.Type),
		Username:         event.Username,
		TokenFingerprint: event.TokenFingerprint,
		Path:             event.Path,
		Detail:           event.Detail,
		At:               event.At.UTC(),
		RecordedAt:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes and the retention TTL index.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "token_fingerprint", Value: 1}}},
		{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create auth_events indexes: %w", err)
	}
	return nil
}
