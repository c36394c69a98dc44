// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics holds the Prometheus collectors of the application.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkwell"

// Outcome labels.
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultMatch    = "match"
	ResultMismatch = "mismatch"
)

// Metrics bundles the collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	registrations   *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	emails          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification code submissions by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Outgoing emails by result.",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations,
		m.verifications,
		m.logins,
		m.emails,
		m.requestDuration,
	)

	return m
}

func (m *Metrics) Registration(result string) { m.registrations.WithLabelValues(result).Inc() }

func (m *Metrics) Verification(result string) { m.verifications.WithLabelValues(result).Inc() }

func (m *Metrics) Login(result string) { m.logins.WithLabelValues(result).Inc() }

func (m *Metrics) Email(result string) { m.emails.WithLabelValues(result).Inc() }

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request latency per route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.requestDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
