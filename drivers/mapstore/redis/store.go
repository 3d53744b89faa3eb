package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/burugo/henry/common"
	"github.com/burugo/henry/typemap"
)

const (
	keyPrefix = "henry:typemap:"
	indexKey  = "henry:typemaps"
)

// Options holds configuration for the Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
	Logger   *zap.Logger
}

// Store persists type maps in Redis. Each map is a JSON value keyed by its
// (from, to) vocabulary pair; a set indexes the stored keys.
// The counters field tracks operation statistics for monitoring (thread-safe).
type Store struct {
	rdb               *redis.Client
	logger            *zap.Logger
	mu                sync.Mutex
	counters          map[string]int
	createdInternally bool
}

// Ensure Store implements io.Closer.
var _ io.Closer = (*Store)(nil)

// NewStore creates a type-map store. If rdb is not nil it is used directly,
// otherwise opts is used to create and ping a new client.
func NewStore(rdb *redis.Client, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	createdInternally := false
	if rdb == nil {
		rdb = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		createdInternally = true

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	logger.Debug("type map store initialized", zap.String("addr", rdb.Options().Addr))
	return &Store{
		rdb:               rdb,
		logger:            logger,
		counters:          make(map[string]int),
		createdInternally: createdInternally,
	}, nil
}

// Close implements io.Closer. Only closes the client if NewStore created it.
func (s *Store) Close() error {
	if s.createdInternally && s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

func (s *Store) incrementCounter(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
}

// Stats returns a snapshot of operation counters.
func (s *Store) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		stats[k] = v
	}
	return stats
}

// Key returns the Redis key holding the map for a vocabulary pair.
func Key(from, to string) string {
	return keyPrefix + from + ":" + to
}

// Insert stores a new map. It fails with DuplicateRecordError when a map
// for the same (from, to) pair exists.
func (s *Store) Insert(ctx context.Context, tm *typemap.TypeMap) error {
	s.incrementCounter("Insert")
	key := Key(tm.FromType, tm.ToType)
	data, err := json.Marshal(tm)
	if err != nil {
		return fmt.Errorf("marshal type map %s: %w", tm.Name, err)
	}

	ok, err := s.rdb.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis SetNX error for key '%s': %w", key, err)
	}
	if !ok {
		s.incrementCounter("InsertDuplicate")
		return &common.DuplicateRecordError{Key: key}
	}
	if err := s.rdb.SAdd(ctx, indexKey, key).Err(); err != nil {
		return fmt.Errorf("redis SAdd error for key '%s': %w", indexKey, err)
	}
	s.logger.Debug("inserted type map", zap.String("key", key), zap.String("name", tm.Name))
	return nil
}

// Get loads the map for a vocabulary pair. It returns common.ErrNotFound
// when none is stored.
func (s *Store) Get(ctx context.Context, from, to string) (*typemap.TypeMap, error) {
	s.incrementCounter("Get")
	key := Key(from, to)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.incrementCounter("GetMiss")
		return nil, common.ErrNotFound
	} else if err != nil {
		s.incrementCounter("GetError")
		return nil, fmt.Errorf("redis Get error for key '%s': %w", key, err)
	}
	s.incrementCounter("GetHit")
	return decode(key, data)
}

// Update replaces a stored map. It fails with RecordNotFoundError when the
// map does not exist. On success tm carries the bumped LockVersion and the
// new UpdatedAt.
func (s *Store) Update(ctx context.Context, tm *typemap.TypeMap) error {
	s.incrementCounter("Update")
	key := Key(tm.FromType, tm.ToType)

	var next typemap.TypeMap
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return &common.RecordNotFoundError{Key: key}
		} else if err != nil {
			return fmt.Errorf("redis Get error for key '%s': %w", key, err)
		}
		stored, err := decode(key, data)
		if err != nil {
			return err
		}

		next = *tm
		next.CreatedAt = stored.CreatedAt
		next.LockVersion = stored.LockVersion + 1
		next.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal type map %s: %w", tm.Name, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	if err := s.rdb.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			s.incrementCounter("UpdateMiss")
		}
		return err
	}
	tm.CreatedAt = next.CreatedAt
	tm.LockVersion = next.LockVersion
	tm.UpdatedAt = next.UpdatedAt
	s.logger.Debug("updated type map", zap.String("key", key), zap.Int("lock_version", tm.LockVersion))
	return nil
}

// Delete removes the map for a vocabulary pair. Deleting a missing map is a no-op.
func (s *Store) Delete(ctx context.Context, from, to string) error {
	s.incrementCounter("Delete")
	key := Key(from, to)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis Del error for key '%s': %w", key, err)
	}
	if err := s.rdb.SRem(ctx, indexKey, key).Err(); err != nil {
		return fmt.Errorf("redis SRem error for key '%s': %w", indexKey, err)
	}
	return nil
}

// All returns every stored map ordered by key.
func (s *Store) All(ctx context.Context) ([]*typemap.TypeMap, error) {
	s.incrementCounter("All")
	keys, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMembers error for key '%s': %w", indexKey, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis MGet error: %w", err)
	}
	maps := make([]*typemap.TypeMap, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Indexed key whose value has gone.
			continue
		}
		tm, err := decode(keys[i], []byte(str))
		if err != nil {
			return nil, err
		}
		maps = append(maps, tm)
	}
	return maps, nil
}

// Populate inserts every map of a loaded map file. Maps that already exist
// are skipped and reported in the returned count of skipped entries.
func (s *Store) Populate(ctx context.Context, maps []*typemap.TypeMap) (inserted, skipped int, err error) {
	for _, tm := range maps {
		err := s.Insert(ctx, tm)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, common.ErrDuplicateRecord):
			skipped++
		default:
			return inserted, skipped, err
		}
	}
	s.logger.Info("populated type maps", zap.Int("inserted", inserted), zap.Int("skipped", skipped))
	return inserted, skipped, nil
}

func decode(key string, data []byte) (*typemap.TypeMap, error) {
	var tm typemap.TypeMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("decode type map at '%s': %w", key, err)
	}
	return &tm, nil
}
