// Package session keeps the portal's tokens between runs.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	sess school.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (school.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess school.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = school.Session{}
	return nil
}

// FileStore keeps the session in a JSON file readable by its owner only.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns an empty session when the file does not exist.
func (s *FileStore) Load(context.Context) (school.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess school.Session
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return sess, nil
		}
		return sess, errors.Wrapf(err, "os.ReadFile(%s)", s.path)
	}
	if err = json.Unmarshal(data, &sess); err != nil {
		return school.Session{}, errors.Wrapf(err, "decoding %s", s.path)
	}
	return sess, nil
}

func (s *FileStore) Save(_ context.Context, sess school.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json.MarshalIndent()")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "os.MkdirAll(%s)", filepath.Dir(s.path))
	}
	// written aside then renamed into place
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(err, "os.WriteFile(%s)", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, s.path), "os.Rename(%s)", tmp)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "os.Remove(%s)", s.path)
	}
	return nil
}

// RedisStore keeps the session under a single Redis key, so that several hosts can share it.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (school.Session, error) {
	var sess school.Session
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return sess, nil
	}
	if err != nil {
		return sess, errors.Wrapf(err, "redis GET %s", s.key)
	}
	if err = json.Unmarshal(data, &sess); err != nil {
		return school.Session{}, errors.Wrapf(err, "decoding %s", s.key)
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess school.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "json.Marshal()")
	}
	return errors.Wrapf(s.rdb.Set(ctx, s.key, data, 0).Err(), "redis SET %s", s.key)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return errors.Wrapf(s.rdb.Del(ctx, s.key).Err(), "redis DEL %s", s.key)
}

// Store is implemented by every session store.
type Store interface {
	Load(ctx context.Context) (school.Session, error)
	Save(ctx context.Context, sess school.Session) error
	Clear(ctx context.Context) error
}

// Open returns the store selected by the configuration.
func Open(conf core.SessionConfig) (Store, error) {
	switch conf.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(conf.Path), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		return NewRedisStore(rdb, conf.RedisKey), nil
	default:
		return nil, errors.Errorf("unknown session store %q", conf.Store)
	}
}
