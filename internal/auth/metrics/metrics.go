// internal/auth/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IssuedTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth", Subsystem: "tokens", Name: "issued_total",
		Help: "Number of issued tokens by type",
	}, []string{"type"})

	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth", Subsystem: "usecase", Name: "login_total",
		Help: "Login outcomes",
	}, []string{"result"})

	ReissueTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth", Subsystem: "usecase", Name: "reissue_total",
		Help: "Reissue outcomes",
	}, []string{"result"})

	RotationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth", Subsystem: "usecase", Name: "rotation_total",
		Help: "Refresh rotation outcomes",
	}, []string{"state"})

	LogoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth", Subsystem: "usecase", Name: "logout_total",
		Help: "Logout outcomes",
	}, []string{"result"})
)
