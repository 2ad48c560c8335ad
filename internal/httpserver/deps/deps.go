package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/engine"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time // for testing, defaults to time.Now
	AllowedHosts     []string         // Host headers allowed on mutating endpoints
	AllowedCIDRS     []string         // IPs allowed to reach the API
	TrustProxy       bool             // true if running behind a trusted reverse proxy
	Engine           *engine.Engine   // category core
	RedisClient      *redis.Client    // nil when the redis audit sink is disabled
	RefreshTrigger   chan struct{}    // manual auto-refresh trigger
	UnlockRatePerMin int              // password attempts per client IP per minute
	RequestTimeout   time.Duration    // bound for quick requests
	CatalogOpTimeout time.Duration    // bound for create/refresh/expand requests
	AuditRecentLimit int              // default page size of /api/audit
}
