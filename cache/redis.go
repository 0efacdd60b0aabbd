// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTierConfig contains Redis connection configuration for the
// remote cache tier.
type RedisTierConfig struct {
	// Address is the Redis server address (host:port).
	// Default: "localhost:6379"
	Address string

	// Password is the Redis password.
	// Default: "" (no password)
	Password string

	// DB is the Redis database number.
	// Default: 0
	DB int

	// KeyPrefix namespaces all keys written by this tier.
	// Default: "memkit:cache:"
	KeyPrefix string

	// TTL is the time-to-live applied to remote keys.
	// Default: 24 hours. Set to 0 for no expiration.
	TTL time.Duration

	// DialTimeout is the timeout for establishing new connections.
	// Default: 5 seconds
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	// Default: 3 seconds
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	// Default: 3 seconds
	WriteTimeout time.Duration
}

// DefaultRedisTierConfig returns the default remote tier configuration.
func DefaultRedisTierConfig() *RedisTierConfig {
	return &RedisTierConfig{
		Address:      "localhost:6379",
		KeyPrefix:    "memkit:cache:",
		TTL:          24 * time.Hour,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisTier is a remote cache tier over Redis. Values are stored as
// JSON. Its Loader and Writer plug into a TieredCache so shared
// deployments can promote entries across processes.
type RedisTier[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTier creates a new Redis-backed remote tier.
//
// Example:
//
//	tier := cache.NewRedisTier[*types.Entry](cache.DefaultRedisTierConfig())
//	tiered := cache.NewTiered(l1, tier.Loader(), tier.Writer(), bus)
func NewRedisTier[T any](config *RedisTierConfig) *RedisTier[T] {
	if config == nil {
		config = DefaultRedisTierConfig()
	}
	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "memkit:cache:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisTier[T]{
		client: client,
		prefix: config.KeyPrefix,
		ttl:    config.TTL,
	}
}

// NewRedisTierWithClient creates a remote tier over an existing client.
func NewRedisTierWithClient[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisTier[T] {
	return &RedisTier[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Loader returns a Loader callback reading from Redis.
func (r *RedisTier[T]) Loader() Loader[T] {
	return func(ctx context.Context, key string) (T, bool, error) {
		var zero T

		data, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return zero, false, nil
			}
			return zero, false, fmt.Errorf("redis tier get: %w", err)
		}

		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			return zero, false, fmt.Errorf("redis tier decode: %w", err)
		}
		return value, true, nil
	}
}

// Writer returns a Writer callback storing to Redis.
func (r *RedisTier[T]) Writer() Writer[T] {
	return func(ctx context.Context, key string, value T) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("redis tier encode: %w", err)
		}

		if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis tier set: %w", err)
		}
		return nil
	}
}

// Delete removes a key from the remote tier.
func (r *RedisTier[T]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Ping verifies the Redis connection.
func (r *RedisTier[T]) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisTier[T]) Close() error {
	return r.client.Close()
}
