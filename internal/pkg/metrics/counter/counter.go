package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const storyViewsKey = "story:counters:views"

// Counter buffers story views in a Redis hash and periodically folds them
// into stories.views.
type Counter struct {
	rdb *redis.Client
	db  *gorm.DB
}

func New(rdb *redis.Client, db *gorm.DB) *Counter {
	return &Counter{rdb: rdb, db: db}
}

// AddStoryView increments the pending view counter for a story in Redis
func (c *Counter) AddStoryView(ctx context.Context, storyID uint) error {
	field := strconv.FormatUint(uint64(storyID), 10)
	return c.rdb.HIncrBy(ctx, storyViewsKey, field, 1).Err()
}

// Pending returns the buffered, not yet flushed views for a story.
func (c *Counter) Pending(ctx context.Context, storyID uint) int64 {
	v, err := c.rdb.HGet(ctx, storyViewsKey, strconv.FormatUint(uint64(storyID), 10)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// FlushAll drains the buffered views into the database
func (c *Counter) FlushAll() error {
	return c.flushHashToTable(context.Background(), storyViewsKey, "stories", "views")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// RENAME to a temporary key drains without losing in-flight increments.
func (c *Counter) flushHashToTable(ctx context.Context, redisKey, table, column string) error {
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := c.rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if err == redis.Nil || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer c.rdb.Del(ctx, tmpKey)

	data, err := c.rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE stories SET views = views + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var b strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	fmt.Fprintf(&b, "UPDATE %s SET %s = %s + CASE id", table, column, column)
	for _, p := range pairs {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	b.WriteString(" ELSE 0 END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, p.id)
	}
	b.WriteString(")")

	return c.db.Exec(b.String(), args...).Error
}
