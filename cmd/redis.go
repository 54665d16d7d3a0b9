package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"maestro/cache"
	"maestro/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check Redis connectivity",
	Long:  `Connect to Redis with the configured settings and run a round-trip read/write check.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.CloseRedis()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key := "maestro:connectivity-check"
		if err := cache.RedisClient.Set(ctx, key, "ok", time.Minute).Err(); err != nil {
			log.Fatalf("Redis SET failed: %v", err)
		}
		val, err := cache.RedisClient.Get(ctx, key).Result()
		if err != nil {
			log.Fatalf("Redis GET failed: %v", err)
		}
		if val != "ok" {
			log.Fatalf("Redis round trip returned %q", val)
		}
		cache.RedisClient.Del(ctx, key)

		fmt.Println("Redis round trip OK.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
