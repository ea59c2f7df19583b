// Copyright (c) Microsoft. All rights reserved.

package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeTaskNotFound   = -32001
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Message is an A2A message.
type Message struct {
	Kind      string         `json:"kind"`
	Role      string         `json:"role"`
	MessageID string         `json:"messageId"`
	ContextID string         `json:"contextId,omitempty"`
	Parts     []Part         `json:"parts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Part is a content part of an A2A message.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

type messageSendParams struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type taskGetParams struct {
	ID string `json:"id"`
}

func (s *Server) handleA2A(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, nil, codeParseError, "Parse error")
		return
	}
	s.logger.DebugContext(r.Context(), "a2a request", "method", req.Method, "id", string(req.ID))

	switch req.Method {
	case "message/send":
		s.messageSend(w, r, &req)
	case "tasks/get":
		var p taskGetParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeRPCError(w, req.ID, codeInvalidParams, "Invalid params")
			return
		}
		writeRPCError(w, req.ID, codeTaskNotFound, "Task not found (this agent only supports synchronous message/send)")
	default:
		writeRPCError(w, req.ID, codeMethodNotFound, "Method not found: "+req.Method)
	}
}

func (s *Server) messageSend(w http.ResponseWriter, r *http.Request, req *rpcRequest) {
	ctx := r.Context()
	if !s.authorized(r) {
		s.logger.WarnContext(ctx, "unauthorized message/send", "remote", r.RemoteAddr)
		writeRPCError(w, req.ID, codeServerError, "Unauthorized")
		return
	}

	var p messageSendParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, "Invalid params")
		return
	}
	var texts []string
	for _, part := range p.Message.Parts {
		if part.Kind == "text" && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		writeRPCError(w, req.ID, codeInvalidParams, "No text content in message")
		return
	}

	contextID := p.Message.ContextID
	resp, err := s.run(ctx, InvokeRequest{Input: strings.Join(texts, "\n"), ConversationID: contextID})
	if err != nil {
		s.logger.ErrorContext(ctx, "message/send failed", "context_id", contextID, "error", err)
		writeRPCError(w, req.ID, codeServerError, "Agent error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: Message{
			Kind:      "message",
			Role:      "agent",
			MessageID: newMessageID(),
			ContextID: contextID,
			Parts:     []Part{{Kind: "text", Text: outputText(outputMessages(resp))}},
		},
	})
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
