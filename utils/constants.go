// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// OAuthStatePrefix namespaces pending OAuth login states.
const OAuthStatePrefix = "oauth:state:"

// StatsCacheKey holds the public statistics snapshot.
const StatsCacheKey = "stats:public"

// StatsCacheTTL is how long the public statistics snapshot is served from cache.
const StatsCacheTTL = 5 * time.Minute

// MaintenanceLockKey guards the subscription sweep across instances.
const MaintenanceLockKey = "lock:maintenance:subscriptions"
