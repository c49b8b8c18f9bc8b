// Package mcp exposes the knowledge base as MCP tools over JSON-RPC, both as
// a plain HTTP POST endpoint and over SSE sessions.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"paperscout/internal/middleware"

	"github.com/google/uuid"
)

// KnowledgeBase is the tool surface this handler exposes. Both operations
// report outcomes as text, never as errors.
type KnowledgeBase interface {
	UpdateKnowledgeBase(ctx context.Context, topic string, maxPapers int, sourceIDs []string) string
	QueryRAG(ctx context.Context, question string) string
}

type Handler struct {
	kb           KnowledgeBase
	sessions     map[string]chan string // sessionId -> serialized JSON-RPC responses
	sessionsLock sync.RWMutex
}

func NewHandler(kb KnowledgeBase) *Handler {
	return &Handler{
		kb:       kb,
		sessions: make(map[string]chan string),
	}
}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type UpdateArgs struct {
	Topic     string `json:"topic"`
	MaxPapers *int   `json:"max_papers,omitempty"`
	Sources   string `json:"sources,omitempty"`
}

type QueryArgs struct {
	Question string `json:"question"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	ErrParse          = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

const (
	defaultMaxPapers = 10
	defaultSources   = "arxiv,semantic_scholar"
)

// processRequest processes the JSON-RPC request and returns a response.
// Returns nil if no response should be sent (notifications).
func (h *Handler) processRequest(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if req.Method == "initialize" {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"tools": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "paperscout-mcp",
					"version": "1.0.0",
				},
			},
		}
	}

	if req.Method == "notifications/initialized" {
		// Notifications must not generate a response
		return nil
	}

	if req.Method == "tools/list" {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: ListToolsResult{
				Tools: []Tool{
					{
						Name: "update_knowledge_base",
						Description: `Ingestion tool. Searches the configured paper sources for a topic, splits the papers into fragments and indexes them for retrieval. Run this before query_rag.

USAGE EXAMPLE:
update_knowledge_base(topic="large language models", max_papers=10, sources="arxiv,semantic_scholar")`,
						InputSchema: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"topic": map[string]string{
									"type":        "string",
									"description": "The research topic to search papers for",
								},
								"max_papers": map[string]interface{}{
									"type":        "integer",
									"description": "Total papers to fetch across all sources (default 10)",
									"minimum":     1,
								},
								"sources": map[string]string{
									"type":        "string",
									"description": "Comma-separated source ids (default \"arxiv,semantic_scholar\")",
								},
							},
							"required": []string{"topic"},
						},
					},
					{
						Name: "query_rag",
						Description: `Retrieval tool. Answers a question with the most relevant fragments from the indexed papers. Returns the fragments as context text.

USAGE EXAMPLE:
query_rag(question="What are the latest innovations in machine learning?")`,
						InputSchema: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"question": map[string]string{
									"type":        "string",
									"description": "The question to answer from the knowledge base",
								},
							},
							"required": []string{"question"},
						},
					},
				},
			},
		}
	}

	if req.Method == "tools/call" {
		var params CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			slog.Warn("invalid params structure", "error", err)
			resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid params")
			return &resp
		}

		if params.Name == "update_knowledge_base" {
			var args UpdateArgs
			if err := json.Unmarshal(params.Arguments, &args); err != nil {
				slog.Warn("invalid update_knowledge_base arguments", "error", err)
				resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid arguments")
				return &resp
			}

			if args.Topic == "" {
				resp := makeErrorResponse(req.ID, ErrInvalidParams, "Topic is required")
				return &resp
			}

			maxPapers := defaultMaxPapers
			if args.MaxPapers != nil && *args.MaxPapers > 0 {
				maxPapers = *args.MaxPapers
			}

			sources := args.Sources
			if sources == "" {
				sources = defaultSources
			}
			sourceIDs := splitSourceIDs(sources)

			result := h.kb.UpdateKnowledgeBase(ctx, args.Topic, maxPapers, sourceIDs)

			slog.Info("tool execution completed", "tool", "update_knowledge_base", "topic", args.Topic)

			return &JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result: ToolResult{
					Content: []ToolContent{
						{Type: "text", Text: result},
					},
				},
			}
		}

		if params.Name == "query_rag" {
			var args QueryArgs
			if err := json.Unmarshal(params.Arguments, &args); err != nil {
				slog.Warn("invalid query_rag arguments", "error", err)
				resp := makeErrorResponse(req.ID, ErrInvalidParams, "Invalid arguments")
				return &resp
			}

			if args.Question == "" {
				resp := makeErrorResponse(req.ID, ErrInvalidParams, "Question is required")
				return &resp
			}

			result := h.kb.QueryRAG(ctx, args.Question)

			slog.Info("tool execution completed", "tool", "query_rag")

			return &JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Result: ToolResult{
					Content: []ToolContent{
						{Type: "text", Text: result},
					},
				},
			}
		}

		slog.Warn("method not found", "method", params.Name)
		resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found: "+params.Name)
		return &resp
	}

	slog.Warn("unknown jsonrpc method", "method", req.Method)
	resp := makeErrorResponse(req.ID, ErrMethodNotFound, "Method not found")
	return &resp
}

func splitSourceIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.ToLower(strings.TrimSpace(p)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func makeErrorResponse(id interface{}, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("mcp request received", "method", r.Method, "path", r.URL.Path)

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, nil, ErrParse, "Parse error")
		return
	}

	resp := h.processRequest(r.Context(), req)
	if resp != nil {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	} else {
		// Notification, just return OK
		w.WriteHeader(http.StatusOK)
	}
}

// HandleSSE establishes the SSE connection and manages the session.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sessionID := uuid.New().String()
	msgChan := make(chan string, 100)

	h.sessionsLock.Lock()
	h.sessions[sessionID] = msgChan
	h.sessionsLock.Unlock()

	defer func() {
		h.sessionsLock.Lock()
		delete(h.sessions, sessionID)
		h.sessionsLock.Unlock()
		close(msgChan)
		slog.Info("sse session ended", "session_id", sessionID)
	}()

	slog.Info("sse session started", "session_id", sessionID)

	// Clients expect an absolute message endpoint URL.
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s/mcp/messages?sessionId=%s", scheme, r.Host, sessionID)
	safeEndpoint := html.EscapeString(endpoint)

	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", safeEndpoint)
	w.(http.Flusher).Flush()

	safeSessionID := html.EscapeString(sessionID)
	fmt.Fprintf(w, "event: id\ndata: %s\n\n", safeSessionID)
	w.(http.Flusher).Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			w.(http.Flusher).Flush()
		case <-ticker.C:
			// Keep-alive comment to prevent proxy timeouts
			fmt.Fprintf(w, ": keepalive\n\n")
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// HandleMessage accepts POST messages associated with a session.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	slog.Info("mcp message received",
		"method", r.Method,
		"path", r.URL.Path,
		"correlation_id", correlationID,
	)

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		slog.Warn("missing sessionId in message request", "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing sessionId", correlationID)
		return
	}

	h.sessionsLock.RLock()
	msgChan, exists := h.sessions[sessionID]
	h.sessionsLock.RUnlock()

	if !exists {
		slog.Warn("session not found", "session_id", sessionID, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", correlationID)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid json in message request", "error", err, "correlation_id", correlationID)
		h.writeHttpError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON", correlationID)
		return
	}

	// MCP transport: acknowledge immediately, deliver the result over SSE.
	w.WriteHeader(http.StatusAccepted)

	// Detached context keeps the correlation id but survives the POST ending.
	bgCtx := context.WithoutCancel(r.Context())

	go func() {
		resp := h.processRequest(bgCtx, req)
		if resp == nil {
			return
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			slog.Error("failed to marshal response", "error", err, "correlation_id", correlationID)
			return
		}

		h.sessionsLock.RLock()
		defer h.sessionsLock.RUnlock()

		defer func() {
			if r := recover(); r != nil {
				slog.Warn("failed to send to sse channel (closed)", "session_id", sessionID, "error", r, "correlation_id", correlationID)
			}
		}()

		select {
		case msgChan <- string(respBytes):
		default:
			slog.Warn("session channel full, dropping message", "session_id", sessionID, "correlation_id", correlationID)
		}
	}()
}

func (h *Handler) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	// JSON-RPC errors travel in the body; the HTTP layer stays 200.
	w.WriteHeader(http.StatusOK)

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeHttpError(w http.ResponseWriter, status int, code string, message string, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"status": "error",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"correlationId": correlationID,
	}
	json.NewEncoder(w).Encode(resp)
}
