package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/contextd/mcp-stdio/internal/jsonrpc"
	"github.com/contextd/mcp-stdio/mcp"
	"github.com/contextd/mcp-stdio/mcpservice"
	"github.com/contextd/mcp-stdio/sessions"
)

// DefaultCallTimeout bounds a single request's handler execution.
const DefaultCallTimeout = 30 * time.Second

// Engine owns the protocol state for one connection: the session lifecycle,
// method dispatch against the server's capabilities, and the mapping of
// domain errors onto JSON-RPC error codes. The transport feeds it one decoded
// message at a time; the engine never reads or writes frames itself.
type Engine struct {
	srv         mcpservice.ServerCapabilities
	log         *slog.Logger
	callTimeout time.Duration

	sess *session

	// cancelled records request IDs from notifications/cancelled that have
	// not begun dispatch yet. Dispatch is strictly serial, so a cancellation
	// can only ever take effect before its request starts.
	cancelled map[string]struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCallTimeout bounds the execution of a single request handler. A
// non-positive value keeps the default.
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// NewEngine builds an engine serving the given capabilities for a single
// connection. A fresh session is minted immediately; it stays uninitialized
// until the client completes the initialize handshake.
func NewEngine(srv mcpservice.ServerCapabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		srv:         srv,
		log:         slog.Default(),
		callTimeout: DefaultCallTimeout,
		sess:        newSession(),
		cancelled:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session exposes the engine's session for logging and tests.
func (e *Engine) Session() sessions.Session { return e.sess }

// Close moves the session to its terminal state. The transport calls it once
// on stream shutdown.
func (e *Engine) Close() { e.sess.close() }

// HandleMessage dispatches one decoded message. Requests yield exactly one
// response; notifications yield nil. The transport must call it serially.
func (e *Engine) HandleMessage(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	if req.IsNotification() {
		e.handleNotification(ctx, req)
		return nil
	}
	return e.handleRequest(ctx, req)
}

func (e *Engine) handleNotification(ctx context.Context, req *jsonrpc.Request) {
	log := e.log.With(slog.String("method", req.Method), slog.String("session_id", e.sess.SessionID()))
	switch mcp.Method(req.Method) {
	case mcp.InitializedNotificationMethod:
		log.InfoContext(ctx, "engine.notification.initialized")
	case mcp.CancelledNotificationMethod:
		var params mcp.CancelledNotification
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.notification.invalid", slog.String("err", err.Error()))
			return
		}
		var id jsonrpc.RequestID
		if err := id.UnmarshalJSON(params.RequestID); err != nil || id.IsNil() {
			log.InfoContext(ctx, "engine.notification.invalid", slog.String("err", "unusable requestId"))
			return
		}
		e.cancelled[id.String()] = struct{}{}
		log.InfoContext(ctx, "engine.notification.cancelled", slog.String("request_id", id.String()), slog.String("reason", params.Reason))
	default:
		// Unknown notifications are ignored; notifications never produce
		// output, not even errors.
		log.InfoContext(ctx, "engine.notification.ignored")
	}
}

func (e *Engine) handleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method), slog.String("session_id", e.sess.SessionID()))

	// A cancellation recorded before dispatch prevents the handler from
	// starting. The request still gets its one response.
	if _, ok := e.cancelled[req.ID.String()]; ok {
		delete(e.cancelled, req.ID.String())
		log.InfoContext(ctx, "engine.handle_request.cancelled", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "request cancelled", nil)
	}

	method := mcp.Method(req.Method)

	// ping and initialize are answerable before the handshake completes.
	switch method {
	case mcp.PingMethod:
		return e.respond(ctx, log, start, req, &mcp.EmptyResult{})
	case mcp.InitializeMethod:
		return e.handleInitialize(ctx, log, start, req)
	}

	// Resolve the method before the handshake gate: an unknown method is
	// method-not-found regardless of session state.
	var handle func(context.Context, *slog.Logger, time.Time, *jsonrpc.Request) *jsonrpc.Response
	switch method {
	case mcp.ToolsListMethod:
		handle = e.handleToolsList
	case mcp.ToolsCallMethod:
		handle = e.handleToolCall
	case mcp.ResourcesListMethod:
		handle = e.handleResourcesList
	case mcp.ResourcesTemplatesListMethod:
		handle = e.handleResourcesTemplatesList
	case mcp.ResourcesReadMethod:
		handle = e.handleResourcesRead
	case mcp.PromptsListMethod:
		handle = e.handlePromptsList
	case mcp.PromptsGetMethod:
		handle = e.handlePromptsGet
	default:
		log.InfoContext(ctx, "engine.handle_request.unknown_method", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}

	if e.sess.State() != sessions.StateInitialized {
		log.InfoContext(ctx, "engine.handle_request.not_initialized", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeNotInitialized, "not initialized", nil)
	}

	return handle(ctx, log, start, req)
}

func (e *Engine) handleInitialize(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	if e.sess.State() != sessions.StateUninitialized {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "duplicate initialize"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil)
	}

	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
		}
	}

	// Echo a supported requested version; otherwise answer with the latest
	// version we speak and let the client decide whether to proceed.
	version := mcp.LatestProtocolVersion
	if mcp.IsSupportedProtocolVersion(params.ProtocolVersion) {
		version = params.ProtocolVersion
	}

	info, err := e.srv.GetServerInfo(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}

	caps := mcp.ServerCapabilities{}
	if _, ok, err := e.srv.GetToolsCapability(ctx, e.sess); err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	} else if ok {
		caps.Tools = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}
	if _, ok, err := e.srv.GetResourcesCapability(ctx, e.sess); err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	} else if ok {
		caps.Resources = &struct {
			ListChanged bool `json:"listChanged"`
			Subscribe   bool `json:"subscribe"`
		}{}
	}
	if _, ok, err := e.srv.GetPromptsCapability(ctx, e.sess); err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	} else if ok {
		caps.Prompts = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}

	result := &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      info,
	}
	if instr, ok, err := e.srv.GetInstructions(ctx, e.sess); err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	} else if ok {
		result.Instructions = instr
	}

	if err := e.sess.initialize(version, sessions.ClientInfo{
		Name:    params.ClientInfo.Name,
		Version: params.ClientInfo.Version,
	}); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil)
	}

	log.InfoContext(ctx, "engine.initialize.ok",
		slog.String("protocol_version", version),
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return e.respond(ctx, log, start, req, result)
}

func (e *Engine) handleToolsList(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	cap, ok, err := e.srv.GetToolsCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}
	tools, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) ([]mcp.Tool, error) {
		return cap.ListTools(ctx, e.sess)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if tools == nil {
		tools = []mcp.Tool{}
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(tools)))
	return e.respond(ctx, log, start, req, &mcp.ListToolsResult{Tools: tools})
}

func (e *Engine) handleToolCall(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
	}
	if params.Name == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing tool name"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "missing tool name", nil)
	}

	cap, ok, err := e.srv.GetToolsCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}

	desc, found := cap.DescribeTool(ctx, params.Name)
	if !found {
		log.InfoContext(ctx, "engine.handle_request.not_found", slog.String("tool", params.Name), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeNotFound, "tool not found: "+params.Name, nil)
	}
	if err := validateToolArgs(desc.InputSchema, params.Arguments); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil)
	}

	result, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return cap.CallTool(ctx, e.sess, &params)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.String("tool", params.Name), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return e.respond(ctx, log, start, req, result)
}

func (e *Engine) handleResourcesList(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	cap, ok, err := e.srv.GetResourcesCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}
	resources, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) ([]mcp.Resource, error) {
		return cap.ListResources(ctx, e.sess)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if resources == nil {
		resources = []mcp.Resource{}
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("resource_count", len(resources)))
	return e.respond(ctx, log, start, req, &mcp.ListResourcesResult{Resources: resources})
}

func (e *Engine) handleResourcesTemplatesList(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	cap, ok, err := e.srv.GetResourcesCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}
	templates, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) ([]mcp.ResourceTemplate, error) {
		return cap.ListResourceTemplates(ctx, e.sess)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if templates == nil {
		templates = []mcp.ResourceTemplate{}
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("template_count", len(templates)))
	return e.respond(ctx, log, start, req, &mcp.ListResourceTemplatesResult{ResourceTemplates: templates})
}

func (e *Engine) handleResourcesRead(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.ReadResourceRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
	}
	if params.URI == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing uri"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "missing uri", nil)
	}

	cap, ok, err := e.srv.GetResourcesCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}

	contents, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return cap.ReadResource(ctx, e.sess, params.URI)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.String("uri", params.URI), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return e.respond(ctx, log, start, req, &mcp.ReadResourceResult{Contents: contents})
}

func (e *Engine) handlePromptsList(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	cap, ok, err := e.srv.GetPromptsCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}
	prompts, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) ([]mcp.Prompt, error) {
		return cap.ListPrompts(ctx, e.sess)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if prompts == nil {
		prompts = []mcp.Prompt{}
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("prompt_count", len(prompts)))
	return e.respond(ctx, log, start, req, &mcp.ListPromptsResult{Prompts: prompts})
}

func (e *Engine) handlePromptsGet(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.GetPromptRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil)
	}
	if params.Name == "" {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "missing prompt name"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "missing prompt name", nil)
	}

	cap, ok, err := e.srv.GetPromptsCapability(ctx, e.sess)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}

	desc, found := cap.DescribePrompt(ctx, params.Name)
	if !found {
		log.InfoContext(ctx, "engine.handle_request.not_found", slog.String("prompt", params.Name), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeNotFound, "prompt not found: "+params.Name, nil)
	}
	if err := validatePromptArgs(desc, params.Arguments); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, err.Error(), nil)
	}

	result, err := callWithTimeout(ctx, e.callTimeout, func(ctx context.Context) (*mcp.GetPromptResult, error) {
		return cap.GetPrompt(ctx, e.sess, &params)
	})
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.String("prompt", params.Name), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return e.respond(ctx, log, start, req, result)
}

// respond marshals a successful result into a response, degrading to an
// internal error response if the result itself cannot be encoded.
func (e *Engine) respond(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request, result any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.encode_fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return resp
}

// errorResponse maps a capability error onto the protocol error surface.
// Internal error detail stays in the log; the wire sees a generic message.
func (e *Engine) errorResponse(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request, err error) *jsonrpc.Response {
	dur := slog.Int64("dur_ms", time.Since(start).Milliseconds())
	switch {
	case errors.Is(err, mcpservice.ErrNotFound):
		log.InfoContext(ctx, "engine.handle_request.not_found", slog.String("err", err.Error()), dur)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeNotFound, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		log.ErrorContext(ctx, "engine.handle_request.timeout", dur)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "request timed out", nil)
	case errors.Is(err, context.Canceled):
		log.InfoContext(ctx, "engine.handle_request.cancelled", dur)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "request cancelled", nil)
	default:
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), dur)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
}

// callWithTimeout bounds a capability call. The call runs in its own
// goroutine so that a handler stuck past its deadline cannot wedge the serve
// loop; the goroutine's eventual result is discarded.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case out := <-ch:
		return out.v, out.err
	}
}
