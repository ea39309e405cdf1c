package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"StoreMap-App/internal/domain/model"
	"StoreMap-App/internal/domain/repository"
)

const geocodeCollection = "geocodeCache"

// FirestoreGeocodeDoc Firestoreに保存するキャッシュドキュメント
type FirestoreGeocodeDoc struct {
	Key       string    `firestore:"key"`
	Address   string    `firestore:"address"`
	Latitude  float64   `firestore:"latitude"`
	Longitude float64   `firestore:"longitude"`
	HasCoord  bool      `firestore:"hasCoord"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// FirestoreGeocodeCacheRepository Firestoreを使用したジオコーディングキャッシュ
type FirestoreGeocodeCacheRepository struct {
	client *firestore.Client
	ttl    time.Duration
}

// NewFirestoreGeocodeCacheRepository 新しいFirestoreGeocodeCacheRepositoryインスタンスを作成
func NewFirestoreGeocodeCacheRepository(client *firestore.Client, ttl time.Duration) *FirestoreGeocodeCacheRepository {
	return &FirestoreGeocodeCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

// docID キーはスラッシュ等を含みうるのでハッシュ化してドキュメントIDにする
func docID(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *FirestoreGeocodeCacheRepository) load(ctx context.Context, key string) (*FirestoreGeocodeDoc, error) {
	snap, err := r.client.Collection(geocodeCollection).Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}

	var doc FirestoreGeocodeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	if time.Now().After(doc.ExpiresAt) {
		return nil, repository.ErrCacheMiss
	}
	return &doc, nil
}

func (r *FirestoreGeocodeCacheRepository) save(ctx context.Context, doc FirestoreGeocodeDoc) error {
	doc.ExpiresAt = time.Now().Add(r.ttl)
	if _, err := r.client.Collection(geocodeCollection).Doc(docID(doc.Key)).Set(ctx, doc); err != nil {
		log.Printf("❌ Failed to save geocode cache %s: %v", doc.Key, err)
		return fmt.Errorf("キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

func (r *FirestoreGeocodeCacheRepository) GetForward(ctx context.Context, query string) (*model.GeocodeResult, error) {
	doc, err := r.load(ctx, forwardKey(query))
	if err != nil {
		return nil, err
	}
	if !doc.HasCoord {
		return nil, repository.ErrCacheMiss
	}
	return &model.GeocodeResult{
		Coordinate: model.Coordinate{Latitude: doc.Latitude, Longitude: doc.Longitude},
		Address:    doc.Address,
	}, nil
}

func (r *FirestoreGeocodeCacheRepository) SetForward(ctx context.Context, query string, result *model.GeocodeResult) error {
	if result == nil {
		return nil
	}
	return r.save(ctx, FirestoreGeocodeDoc{
		Key:       forwardKey(query),
		Address:   result.Address,
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		HasCoord:  true,
	})
}

func (r *FirestoreGeocodeCacheRepository) GetReverse(ctx context.Context, coord model.Coordinate) (string, error) {
	doc, err := r.load(ctx, reverseKey(coord))
	if err != nil {
		return "", err
	}
	return doc.Address, nil
}

func (r *FirestoreGeocodeCacheRepository) SetReverse(ctx context.Context, coord model.Coordinate, address string) error {
	return r.save(ctx, FirestoreGeocodeDoc{
		Key:       reverseKey(coord),
		Address:   address,
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
	})
}
