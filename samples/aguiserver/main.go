// Copyright (c) Microsoft. All rights reserved.

// Command aguiserver serves an agent over the AG-UI protocol.
//
// The agent owns one tool, get_time_zone, which runs on the server. Tools the
// client sends with a run (get_weather in the companion client) are offered
// to the model and executed by the client.
//
//	go run ./samples/aguiserver
//	curl -N -X POST http://127.0.0.1:8888/ -d '{"messages":[{"id":"1","role":"user","content":"Time zone of Seattle?"}]}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/agui"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
	"github.com/jochenvw/agent-framework-samples/samples/internal/sampletools"
	"github.com/jochenvw/agent-framework-samples/samples/internal/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8888", "listen address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)

	name, err := config.FirstModel(cfg.MediumModel)
	if err != nil {
		log.Fatal("Set MEDIUM_DEPLOYMENT_MODEL_NAME")
	}
	model, err := modelclient.New(cfg, name, modelclient.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("AG-UI server listening on http://%s/\n", *addr)
	if err := server.Serve(ctx, *addr, newHandler(model, logger)); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func newHandler(model *modelclient.Model, logger *slog.Logger) http.Handler {
	opts := []af.AgentOption{
		af.WithName("AGUIAssistant"),
		af.WithInstructions("You are a helpful assistant. Use get_weather for weather and get_time_zone for time zones."),
		af.WithTools(sampletools.TimeZoneTool()),
		af.WithAgentMiddleware(af.LoggingMiddleware(logger)),
		af.WithFunctionMiddleware(af.FunctionLoggingMiddleware(logger)),
		af.WithLogger(logger),
	}
	agent := af.NewAgent(model.Client, append(opts, model.AgentOptions...)...)

	mux := http.NewServeMux()
	mux.Handle("/", agui.NewHandler(agent, agui.WithLogger(logger)))
	return accessLog(logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func accessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.DebugContext(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
