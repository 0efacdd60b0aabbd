// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package ratelimit

import (
	"net"
	"net/http"
)

// MiddlewareConfig holds HTTP middleware configuration.
type MiddlewareConfig struct {
	// Limiter is the rate limiter to use.
	Limiter Limiter

	// KeyFunc derives the rate limit key from the request. Defaults to
	// the client IP.
	KeyFunc func(r *http.Request) string

	// OnRateLimitExceeded handles limited requests. Defaults to a 429
	// response.
	OnRateLimitExceeded http.HandlerFunc
}

// DefaultMiddlewareConfig returns default middleware configuration.
func DefaultMiddlewareConfig(limiter Limiter) MiddlewareConfig {
	return MiddlewareConfig{
		Limiter: limiter,
		KeyFunc: func(r *http.Request) string {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				return r.RemoteAddr
			}
			return host
		},
		OnRateLimitExceeded: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		},
	}
}

// Middleware returns an HTTP middleware enforcing the limiter.
func Middleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	if config.KeyFunc == nil || config.OnRateLimitExceeded == nil {
		defaults := DefaultMiddlewareConfig(config.Limiter)
		if config.KeyFunc == nil {
			config.KeyFunc = defaults.KeyFunc
		}
		if config.OnRateLimitExceeded == nil {
			config.OnRateLimitExceeded = defaults.OnRateLimitExceeded
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Limiter != nil && !config.Limiter.Allow(config.KeyFunc(r)) {
				config.OnRateLimitExceeded(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
