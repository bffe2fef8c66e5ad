package checkpoint

import (
	"context"
	"errors"
	"os"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

// Store persists the exporter's change-stream resume token so a restart
// picks up where the previous run stopped
type Store interface {
	// Save persists the resume token
	Save(ctx context.Context, token bson.Raw) error

	// Load retrieves the last saved resume token. Returns nil if no token exists.
	Load(ctx context.Context) (bson.Raw, error)
}

// FileStore implements Store using a local file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(ctx context.Context, token bson.Raw) error {
	return os.WriteFile(s.path, token, 0644)
}

func (s *FileStore) Load(ctx context.Context) (bson.Raw, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return bson.Raw(data), nil
}

// RedisStore implements Store using Redis
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, token bson.Raw) error {
	return s.client.Set(ctx, s.key, []byte(token), 0).Err()
}

func (s *RedisStore) Load(ctx context.Context) (bson.Raw, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return bson.Raw(data), nil
}
