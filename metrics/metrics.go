// Copyright (c) Microsoft. All rights reserved.

// Package metrics records agent and tool activity as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("WeatherAgent"),
//	    agentframework.WithAgentMiddleware(m.AgentMiddleware()),
//	    agentframework.WithFunctionMiddleware(m.FunctionMiddleware()),
//	)
//	http.Handle("/metrics", m.Handler(reg))
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Recorder holds the collectors. Create one per registry.
type Recorder struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	tokensTotal  *prometheus.CounterVec
	approvals    *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent runs by agent, status and error type",
			},
			[]string{"agent", "status", "error_type"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent", "status"},
		),
		toolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tool_invocations_total",
				Help: "Total number of tool invocations by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		tokensTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tokens_total",
				Help: "Total number of model tokens used by agent runs",
			},
			[]string{"agent", "direction"},
		),
		approvals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_approval_requests_total",
				Help: "Total number of tool calls that stopped a run for human approval",
			},
			[]string{"agent", "tool"},
		),
	}
}

// AgentMiddleware records run count, duration, tokens and approval requests,
// labelled with the name of the agent being run.
func (r *Recorder) AgentMiddleware() af.AgentMiddleware {
	return func(next af.AgentHandler) af.AgentHandler {
		return func(ctx context.Context, req *af.AgentRequest) (*af.AgentResponse, error) {
			agent := req.AgentName
			if agent == "" {
				agent = "unnamed"
			}
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start).Seconds()

			if err != nil {
				r.runsTotal.WithLabelValues(agent, statusError, errorType(err)).Inc()
				r.runDuration.WithLabelValues(agent, statusError).Observe(elapsed)
				return nil, err
			}

			r.runsTotal.WithLabelValues(agent, statusSuccess, "").Inc()
			r.runDuration.WithLabelValues(agent, statusSuccess).Observe(elapsed)
			r.tokensTotal.WithLabelValues(agent, "input").Add(float64(resp.Usage.InputTokens))
			r.tokensTotal.WithLabelValues(agent, "output").Add(float64(resp.Usage.OutputTokens))
			for _, ar := range resp.UserInputRequests() {
				r.approvals.WithLabelValues(agent, ar.Name).Inc()
			}
			return resp, nil
		}
	}
}

// FunctionMiddleware records tool invocation count and duration.
func (r *Recorder) FunctionMiddleware() af.FunctionMiddleware {
	return func(next af.FunctionHandler) af.FunctionHandler {
		return func(ctx context.Context, tool af.Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := next(ctx, tool, args)
			r.toolDuration.WithLabelValues(tool.Name()).Observe(time.Since(start).Seconds())

			status := statusSuccess
			if err != nil {
				status = statusError
			}
			r.toolCalls.WithLabelValues(tool.Name(), status).Inc()
			return result, err
		}
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func (r *Recorder) Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, af.ErrAuth):
		return "auth"
	case errors.Is(err, af.ErrContentFilter):
		return "content_filter"
	case errors.Is(err, af.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, af.ErrService):
		return "service"
	case errors.Is(err, af.ErrTool):
		return "tool"
	default:
		return "other"
	}
}
