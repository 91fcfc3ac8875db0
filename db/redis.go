package db

import (
	"encoding/json"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const keyPrefix = "annotator:doc:"

func init() {
	MustRegister("redis", func(opt *Options) (Store, error) {
		return NewRedisStore(&opt.Redis)
	})
}

// RedisConfig contains configuration for Redis
type RedisConfig struct {
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Password    string `envconfig:"REDIS_PASSWORD"`
	DB          int    `envconfig:"REDIS_DB"`
	PoolSize    int    `envconfig:"REDIS_POOL_SIZE"`
	PoolTimeout int    `envconfig:"REDIS_POOL_TIMEOUT_SECONDS"`
	IdleTimeout int    `envconfig:"REDIS_IDLE_TIMEOUT_SECONDS"`
}

// RedisStore keeps each document as a JSON string value
type RedisStore struct {
	rc *redis.Client
}

func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = &RedisConfig{}
	}
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "6379")
	}
	return &RedisStore{
		rc: redis.NewClient(&redis.Options{
			Addr:        addr,
			DB:          cfg.DB,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			PoolTimeout: time.Duration(cfg.PoolTimeout) * time.Second,
			IdleTimeout: time.Duration(cfg.IdleTimeout) * time.Second,
		}),
	}, nil
}

func redisKey(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "*?[] ") {
		return "", errors.Wrapf(ErrBadKey, "%q", key)
	}
	if !strings.HasSuffix(key, ext) {
		key += ext
	}
	return keyPrefix + key, nil
}

func (c *RedisStore) Get(key string, dst interface{}) error {
	k, err := redisKey(key)
	if err != nil {
		return err
	}
	val, err := c.rc.Get(k).Result()
	if err == redis.Nil {
		return errors.Wrapf(ErrNotFound, "%q", key)
	} else if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dst)
}

func (c *RedisStore) Put(key string, val interface{}) error {
	k, err := redisKey(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	pipe := c.rc.TxPipeline()
	pipe.Set(k, string(data), 0)
	pipe.HSet(keyPrefix+"mtime", k, time.Now().Unix())
	_, err = pipe.Exec()
	return err
}

func (c *RedisStore) List() ([]Entry, error) {
	keys, err := c.rc.Keys(keyPrefix + "*" + ext).Result()
	if err != nil {
		return nil, err
	}
	mtimes, err := c.rc.HGetAll(keyPrefix + "mtime").Result()
	if err != nil {
		return nil, err
	}
	list := []Entry{}
	for _, k := range keys {
		size, err := c.rc.StrLen(k).Result()
		if err != nil {
			return nil, err
		}
		e := Entry{Name: strings.TrimPrefix(k, keyPrefix), Size: size}
		if sec, err := strconv.ParseInt(mtimes[k], 10, 64); err == nil {
			e.Modified = time.Unix(sec, 0)
		}
		list = append(list, e)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Modified.Equal(list[j].Modified) {
			return list[i].Modified.After(list[j].Modified)
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}
