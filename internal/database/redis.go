package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const stateTTL = 10 * time.Minute

func InitRedis(addr, password string) {
	if addr == "" {
		log.Println("REDIS_ADDR not set, OAuth state nonces will be kept in the database")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := Redis.Ping(Ctx).Result(); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Falling back to database state storage.", err)
		Redis = nil
		return
	}
	log.Println("Connected to Redis successfully")
}

// StoreState records an OAuth state nonce with a short TTL. Nonces are
// single-use; ConsumeState removes them on first read.
func StoreState(state string) error {
	return Redis.Set(Ctx, "oauth_state:"+state, "1", stateTTL).Err()
}

// ConsumeState atomically reads and deletes the nonce. A second consume of the
// same state fails, which is what defeats callback replay.
func ConsumeState(state string) (bool, error) {
	_, err := Redis.GetDel(Ctx, "oauth_state:"+state).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
