package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-envconfig"
)

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,default=redis:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,default=0"`
	KeyPrefix   string        `env:"REDIS_KEY_PREFIX,default=goscheduler"`
	PollTimeout time.Duration `env:"REDIS_POLL_TIMEOUT,default=1s"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadRedisConfigFromEnv(ctx context.Context) (*RedisConfig, error) {
	var cfg RedisConfig
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateRedisConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validateRedisConfig(cfg *RedisConfig) error {
	var errs []string
	if strings.TrimSpace(cfg.Addr) == "" {
		errs = append(errs, "REDIS_ADDR is required")
	}
	if cfg.DB < 0 {
		errs = append(errs, "REDIS_DB must be non-negative")
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		errs = append(errs, "REDIS_KEY_PREFIX is required")
	}
	if cfg.PollTimeout <= 0 {
		errs = append(errs, "REDIS_POLL_TIMEOUT must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// NewRedisClient opens a client and checks the server answers.
func NewRedisClient(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Addr)
	}
	return rdb, nil
}

// priorityWeight keeps any priority band ahead of every lower band regardless
// of enqueue time, since millisecond timestamps stay below it.
const priorityWeight = 1e13

// promoteScript moves due delayed messages onto the ready set.
// KEYS: delayed, payload, ready. ARGV: now (ms), batch size.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, id in ipairs(ids) do
	redis.call('ZREM', KEYS[1], id)
	local payload = redis.call('HGET', KEYS[2], id)
	redis.call('HDEL', KEYS[2], id)
	if payload then
		local msg = cjson.decode(payload)
		local prio = tonumber(msg['priority']) or 0
		local score = -prio * 1e13 + tonumber(ARGV[1])
		redis.call('ZADD', KEYS[3], string.format('%.0f', score), payload)
	end
end
return #ids
`)

// RedisQueue is a Queue backed by two sorted sets and a hash: ready members
// are scored by priority then enqueue time, delayed members are job ids
// scored by due time with their message in the hash.
type RedisQueue struct {
	rdb         *redis.Client
	readyKey    string
	delayedKey  string
	payloadKey  string
	pollTimeout time.Duration
	batch       int
	now         func() time.Time
}

var _ Queue = (*RedisQueue)(nil)

func NewRedisQueue(rdb *redis.Client, cfg *RedisConfig) *RedisQueue {
	return &RedisQueue{
		rdb:         rdb,
		readyKey:    cfg.KeyPrefix + ":queue:ready",
		delayedKey:  cfg.KeyPrefix + ":queue:delayed",
		payloadKey:  cfg.KeyPrefix + ":queue:payload",
		pollTimeout: cfg.PollTimeout,
		batch:       100,
		now:         time.Now,
	}
}

func readyScore(priority int, at time.Time) float64 {
	return -float64(priority)*priorityWeight + float64(at.UnixMilli())
}

func (q *RedisQueue) EnqueueNow(ctx context.Context, msg Message) error {
	msg.Token = uuid.NewString()
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode queue message")
	}
	err = q.rdb.ZAdd(ctx, q.readyKey, redis.Z{
		Score:  readyScore(msg.Priority, q.now()),
		Member: string(b),
	}).Err()
	if err != nil {
		return errors.Wrapf(err, "enqueue job %d", msg.JobID)
	}
	return nil
}

func (q *RedisQueue) EnqueueAt(ctx context.Context, msg Message, at time.Time) error {
	if !at.After(q.now()) {
		return q.EnqueueNow(ctx, msg)
	}
	msg.Token = uuid.NewString()
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode queue message")
	}
	member := strconv.FormatUint(uint64(msg.JobID), 10)
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.payloadKey, member, string(b))
		pipe.ZAdd(ctx, q.delayedKey, redis.Z{Score: float64(at.UnixMilli()), Member: member})
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "enqueue job %d at %s", msg.JobID, at.Format(time.RFC3339))
	}
	return nil
}

func (q *RedisQueue) EnqueueAfter(ctx context.Context, msg Message, delay time.Duration) error {
	return q.EnqueueAt(ctx, msg, q.now().Add(delay))
}

func (q *RedisQueue) Cancel(ctx context.Context, jobID uint) error {
	member := strconv.FormatUint(uint64(jobID), 10)
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.delayedKey, member)
		pipe.HDel(ctx, q.payloadKey, member)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "cancel delayed job %d", jobID)
	}
	return nil
}

func (q *RedisQueue) promote(ctx context.Context) error {
	keys := []string{q.delayedKey, q.payloadKey, q.readyKey}
	return promoteScript.Run(ctx, q.rdb, keys, q.now().UnixMilli(), q.batch).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		if err := q.promote(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return Message{}, errors.Wrap(err, "promote delayed jobs")
		}

		res, err := q.rdb.BZPopMin(ctx, q.pollTimeout, q.readyKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, errors.Wrap(err, "pop ready job")
		}

		member, ok := res.Member.(string)
		if !ok {
			return Message{}, errors.Newf("unexpected queue member type %T", res.Member)
		}
		var msg Message
		if err := json.Unmarshal([]byte(member), &msg); err != nil {
			return Message{}, errors.Wrap(err, "decode queue message")
		}
		return msg, nil
	}
}

// Close is a no-op: the client belongs to the caller.
func (q *RedisQueue) Close() error { return nil }
