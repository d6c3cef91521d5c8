package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkwell",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inkwell",
		Name:      "registrations_total",
		Help:      "Accounts created through the registration form.",
	})

	pageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkwell",
		Name:      "page_cache_lookups_total",
		Help:      "Public page cache lookups by result.",
	}, []string{"result"})
)
