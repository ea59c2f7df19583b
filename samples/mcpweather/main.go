// Copyright (c) Microsoft. All rights reserved.

// Command mcpweather is the MCP server behind the location/weather agent's
// weather and time tools.
//
//	go run ./samples/mcpweather --port 8001
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/server"
)

func main() {
	port := flag.String("port", "8001", "HTTP listen port")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/mcp", newServer(time.Now).Handler())

	fmt.Printf("Weather MCP server listening on http://localhost:%s/mcp\n", *port)
	if err := server.Serve(ctx, ":"+*port, mux); err != nil {
		log.Fatalf("server: %v", err)
	}
}
