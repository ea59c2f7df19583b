// Copyright (c) Microsoft. All rights reserved.

// Command mcpuser is the MCP server that knows the current user and where
// they are. Locations are kept in memory for the life of the process.
//
//	go run ./samples/mcpuser --port 8002
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
	"github.com/jochenvw/agent-framework-samples/samples/internal/server"
)

func main() {
	port := flag.String("port", "8002", "HTTP listen port")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/mcp", newServer(newLocations()).Handler())

	fmt.Printf("User MCP server listening on http://localhost:%s/mcp\n", *port)
	if err := server.Serve(ctx, ":"+*port, mux); err != nil {
		log.Fatalf("server: %v", err)
	}
}
