package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/silverlang/sildbg/internal/session"
)

// sessionContextKey is the context key for storing the debug session
type contextKey string

const sessionContextKey contextKey = "session"

// getSessionFromContext retrieves the debug session from the request context.
// The session is stored as a value to keep request lifecycle separate from
// session lifecycle.
func getSessionFromContext(ctx context.Context) (*session.DebugSession, error) {
	sess, ok := ctx.Value(sessionContextKey).(*session.DebugSession)
	if !ok || sess == nil {
		return nil, fmt.Errorf("debug session not found in request context")
	}
	return sess, nil
}

// createSessionInjectionMiddleware creates middleware that automatically
// manages session lifecycle. Each MCP session gets one debug session that
// outlives individual requests.
func createSessionInjectionMiddleware(sessionMgr *session.Manager) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(
			ctx context.Context,
			method string,
			req mcp.Request,
		) (mcp.Result, error) {
			sessionID := req.GetSession().ID()

			sess := sessionMgr.GetOrCreateSession(sessionID)
			sess.UpdateLastAccessed()

			// Store the debug session as value in the request context
			// so a cancelled request does not tear down the session
			ctx = context.WithValue(ctx, sessionContextKey, sess)

			return next(ctx, method, req)
		}
	}
}

// createLoggingMiddleware creates middleware that logs all MCP method calls
func createLoggingMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(
			ctx context.Context,
			method string,
			req mcp.Request,
		) (mcp.Result, error) {
			start := time.Now()
			sessionID := req.GetSession().ID()

			log.Printf("[REQUEST] Session: %s | Method: %s", sessionID, method)

			result, err := next(ctx, method, req)

			duration := time.Since(start)

			if err != nil {
				log.Printf("[RESPONSE] Session: %s | Method: %s | Status: ERROR | Duration: %v | Error: %v",
					sessionID, method, duration, err)
			} else {
				log.Printf("[RESPONSE] Session: %s | Method: %s | Status: OK | Duration: %v",
					sessionID, method, duration)
			}

			return result, err
		}
	}
}
