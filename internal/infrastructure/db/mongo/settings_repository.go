package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

const (
	collectionSettings = "settings"
	collectionPlatform = "platform_settings"

	// platformDocID keys the single platform-settings document.
	platformDocID = "platform"
)

type SettingsRepository struct {
	library  *mongo.Collection
	platform *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{
		library:  db.Collection(collectionSettings),
		platform: db.Collection(collectionPlatform),
	}
}

func (r *SettingsRepository) FindByLibrary(ctx context.Context, libraryID string) (*domain.LibrarySettings, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.LibrarySettings
	if err := r.library.FindOne(ctx, bson.M{"_id": libraryID}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *domain.LibrarySettings) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.library.ReplaceOne(ctx, bson.M{"_id": s.LibraryID}, s, opts)
	return err
}

func (r *SettingsRepository) FindPlatform(ctx context.Context) (*domain.PlatformSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc struct {
		ID                      string `bson:"_id"`
		domain.PlatformSettings `bson:",inline"`
	}
	if err := r.platform.FindOne(ctx, bson.M{"_id": platformDocID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, err
	}
	return &doc.PlatformSettings, nil
}

func (r *SettingsRepository) SavePlatform(ctx context.Context, s *domain.PlatformSettings) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := struct {
		ID                      string `bson:"_id"`
		domain.PlatformSettings `bson:",inline"`
	}{ID: platformDocID, PlatformSettings: *s}

	opts := options.Replace().SetUpsert(true)
	_, err := r.platform.ReplaceOne(ctx, bson.M{"_id": platformDocID}, doc, opts)
	return err
}
