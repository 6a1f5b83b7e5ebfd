package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	domain "github.com/example/nextalk-server/domain/chat"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per room, scored by unix microseconds.
// Each member is a zero-padded per-room sequence number, a "|", and the
// message JSON, so members sharing a score sort in append order.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxPerRoom int
}

// appendScript assigns the next sequence, adds the member and trims the set
// in one atomic step.
var appendScript = redis.NewScript(`
	local seq = redis.call('INCR', KEYS[2])
	redis.call('ZADD', KEYS[1], ARGV[1], string.format('%020d', seq) .. '|' .. ARGV[2])
	local max = tonumber(ARGV[3])
	if max > 0 then
		redis.call('ZREMRANGEBYRANK', KEYS[1], 0, -max - 1)
	end
	return seq
`)

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, prefix string, maxPerRoom int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix, maxPerRoom), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, maxPerRoom int) *RedisStore {
	return &RedisStore{
		client:     client,
		prefix:     prefix,
		maxPerRoom: maxPerRoom,
	}
}

func (s *RedisStore) key(room string) string {
	return s.prefix + "room:" + room
}

func (s *RedisStore) seqKey(room string) string {
	return s.prefix + "seq:" + room
}

// Append adds msg to the room's set and trims the oldest entries past maxPerRoom.
func (s *RedisStore) Append(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	keys := []string{s.key(msg.Room), s.seqKey(msg.Room)}
	if err := appendScript.Run(ctx, s.client, keys, msg.Timestamp.UnixMicro(), string(data), s.maxPerRoom).Err(); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// RecentByRoom returns the newest limit messages of room, oldest first.
func (s *RedisStore) RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	members, err := s.client.ZRevRange(ctx, s.key(room), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	type entry struct {
		seq int64
		msg domain.Message
	}
	entries := make([]entry, len(members))
	for i, member := range members {
		seqPart, body, ok := strings.Cut(member, "|")
		if !ok {
			return nil, fmt.Errorf("malformed history member in room %q", room)
		}
		seq, err := strconv.ParseInt(seqPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse sequence: %w", err)
		}
		var m domain.Message
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		entries[i] = entry{seq: seq, msg: m}
	}

	// Scores stop at microseconds; order by full timestamp, then append order.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.msg.Timestamp.Equal(b.msg.Timestamp) {
			return a.msg.Timestamp.Before(b.msg.Timestamp)
		}
		return a.seq < b.seq
	})

	out := make([]domain.Message, len(entries))
	for i, e := range entries {
		out[i] = e.msg
	}
	return out, nil
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
