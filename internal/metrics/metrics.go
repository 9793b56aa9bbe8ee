// Package metrics counts authentication events for prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	Event string

	// Auth is safe to use as a nil pointer, in which case nothing is
	// recorded.
	Auth struct {
		events *prometheus.CounterVec
	}
)

const (
	Registered           = Event("registered")
	RegistrationRejected = Event("registration_rejected")
	LoggedIn             = Event("logged_in")
	LoginFailed          = Event("login_failed")
	LoggedOut            = Event("logged_out")
	GuardRedirect        = Event("guard_redirect")
	CSRFRejected         = Event("csrf_rejected")
)

// NewAuth registers the auth counters with reg, a nil reg keeps the
// counters private to the returned value.
func NewAuth(reg prometheus.Registerer) *Auth {
	return &Auth{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogbox",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind",
		}, []string{"event"}),
	}
}

func (a *Auth) Inc(e Event) {
	if a == nil {
		return
	}
	a.events.WithLabelValues(string(e)).Inc()
}

func (a *Auth) Counter(e Event) prometheus.Counter {
	return a.events.WithLabelValues(string(e))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
