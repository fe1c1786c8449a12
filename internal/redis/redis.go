package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// StateKey holds the versioned match snapshot of a room
func StateKey(roomCode string) string {
	return fmt.Sprintf("room:%s:match", roomCode)
}

// StateChannel carries every committed snapshot of a room
func StateChannel(roomCode string) string {
	return fmt.Sprintf("room:%s:state", roomCode)
}

// PlayersChannel carries roster changes of a room
func PlayersChannel(roomCode string) string {
	return fmt.Sprintf("room:%s:players", roomCode)
}
