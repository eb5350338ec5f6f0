// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Sessions: Document session lifetime and sweep cadence.
  - Settings: Well-known keys in the app.setting table.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "exvault-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Uploads carry whole PDFs, so this is generous compared to a typical API.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 120 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	// The Gemini call is the slowest operation and runs well under this.
	GlobalRequestTimeout = 120 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Document Sessions

const (
	// SessionTTL is how long an idle document session is kept before it is
	// discarded together with its composite image.
	SessionTTL = 2 * time.Hour

	// SessionSweepInterval is how often expired sessions are reaped.
	SessionSweepInterval = 5 * time.Minute

	// MaxUploadBytes caps the size of an uploaded PDF or image (64 MiB).
	MaxUploadBytes = 64 << 20
)

// # Settings Keys

const (
	// SettingGeminiAPIKey is the well-known app.setting key holding the AI
	// credential. Its presence gates every extraction feature.
	SettingGeminiAPIKey = "gemini_api_key"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixExtraction prefixes cached AI extraction results, keyed by
	// the SHA-256 of the submitted page images.
	RedisPrefixExtraction = "extract:result:"
)

// # Cache Lifetimes

const (
	// ExtractionCacheTTL bounds how long a cached AI proposal is reused for
	// an identical set of page images.
	ExtractionCacheTTL = 24 * time.Hour
)
