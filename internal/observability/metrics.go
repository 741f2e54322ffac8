// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// LikesToggled counts like toggles by target ("post", "comment") and result ("liked", "unliked").
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_likes_toggled_total",
		Help: "Total number of like toggles",
	}, []string{"target", "result"})

	// FollowsCreated counts follow edges written.
	FollowsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribble_follows_created_total",
		Help: "Total number of follow edges created",
	})

	// PostsCreated counts new posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribble_posts_created_total",
		Help: "Total number of posts created",
	})

	// NotificationsPublished counts events published per type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribble_notifications_published_total",
		Help: "Total number of notification events published",
	}, []string{"event_type"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scribble_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts messages dropped because a client buffer was full.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribble_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	})
)

// LikeResult returns the LikesToggled label for the post-toggle state.
func LikeResult(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
