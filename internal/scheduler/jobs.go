package scheduler

import (
	"context"
	"log"

	session "anoa.com/feedsync/internal/modules/session/service"
)

const (
	TrendingJob  = "trending-refresh"
	IdleSweepJob = "idle-session-sweep"
)

// TrendingRefresh recomputes the trending tags and pushes them to every
// live session.
func TrendingRefresh(registry *session.Registry, schedule string) Job {
	return JobFunc(TrendingJob, schedule, registry.RefreshTrending)
}

// IdleSweep ends sessions nobody has used for the idle timeout.
func IdleSweep(registry *session.Registry, schedule string) Job {
	return JobFunc(IdleSweepJob, schedule, func(context.Context) error {
		if n := registry.Sweep(); n > 0 {
			log.Printf("🧹 Ended %d idle sessions", n)
		}
		return nil
	})
}
