package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/constants"
	"github.com/aman-zulfiqar/solana-token-accounts/internal/tokenaccount"
	"github.com/redis/go-redis/v9"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

type Store struct {
	client redis.Cmdable
}

// NewStore creates a profile store on client.
func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid profile name")
	}
	return nil
}

// Upsert stores cfg under name. The default strategy is normalized, so
// aliases like "ata" are stored as "associated".
func (s *Store) Upsert(ctx context.Context, name string, cfg tokenaccount.Config) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	strategy, err := tokenaccount.ParseWrapStrategy(string(cfg.DefaultStrategy))
	if err != nil {
		return nil, err
	}
	cfg.DefaultStrategy = strategy

	p := &Profile{Name: name, Config: cfg, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, profileKey(name), b, 0)
	pipe.SAdd(ctx, constants.RedisKeyProfileIndex, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return p, nil
}

func (s *Store) Get(ctx context.Context, name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, profileKey(name)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]*Profile, error) {
	names, err := s.client.SMembers(ctx, constants.RedisKeyProfileIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list profiles index: %w", err)
	}
	if len(names) == 0 {
		return []*Profile{}, nil
	}

	redisKeys := make([]string, 0, len(names))
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			continue
		}
		redisKeys = append(redisKeys, profileKey(n))
	}
	if len(redisKeys) == 0 {
		return []*Profile{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget profiles: %w", err)
	}

	out := make([]*Profile, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, profileKey(name))
	pipe.SRem(ctx, constants.RedisKeyProfileIndex, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}

	return nil
}

func profileKey(name string) string {
	return constants.RedisKeyProfilePrefix + name
}
