package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trpc.group/trpc-go/trpc-a2a-go/auth"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	log "github.com/tuannvm/dr-triage/internal/logging"
)

// SetupServerOptions contains options for setting up an A2A server
type SetupServerOptions struct {
	AgentName        string
	AgentDescription string
	AgentVersion     string
	AgentURL         string
	AuthType         string
	JWTSecret        string
	APIKey           string
	Processor        taskmanager.TaskProcessor
	Skills           []server.AgentSkill
}

// NewAuthProvider builds the provider for authType. It returns a nil provider
// for "" and "none".
func NewAuthProvider(authType, jwtSecret, apiKey string) (auth.Provider, error) {
	switch authType {
	case "", "none":
		return nil, nil
	case "jwt":
		if jwtSecret == "" {
			return nil, errors.New("jwt auth requires AUTH_JWT_SECRET")
		}
		return auth.NewJWTAuthProvider(
			[]byte(jwtSecret),
			"", // audience (empty for any)
			"", // issuer (empty for any)
			24*time.Hour,
		), nil
	case "apikey":
		if apiKey == "" {
			return nil, errors.New("apikey auth requires AUTH_API_KEY")
		}
		return auth.NewAPIKeyAuthProvider(map[string]string{apiKey: "user"}, "X-API-Key"), nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", authType)
	}
}

// SetupServer creates and configures an A2A server with common settings
func SetupServer(opts SetupServerOptions) (*server.A2AServer, error) {
	description := opts.AgentDescription
	if description == "" {
		description = fmt.Sprintf("%s agent", opts.AgentName)
	}
	agentCard := server.AgentCard{
		Name:        opts.AgentName,
		Description: StringPtr(description),
		URL:         opts.AgentURL,
		Version:     opts.AgentVersion,
		Provider: &server.AgentProvider{
			Organization: "Dr. Triage",
		},
		DefaultInputModes:  []string{"text", "data"},
		DefaultOutputModes: []string{"text", "data"},
		Skills:             opts.Skills,
	}

	taskManager, err := taskmanager.NewMemoryTaskManager(opts.Processor)
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}

	// JSON-RPC at root so A2AClient.SendTasks can POST to "/"
	serverOpts := []server.Option{
		server.WithJSONRPCEndpoint("/"),
		server.WithReadTimeout(2 * time.Minute),
		server.WithWriteTimeout(2 * time.Minute),
	}

	authProvider, err := NewAuthProvider(opts.AuthType, opts.JWTSecret, opts.APIKey)
	if err != nil {
		return nil, err
	}
	if authProvider != nil {
		log.Infof("Configuring %s authentication for %s", opts.AuthType, opts.AgentName)
		serverOpts = append(serverOpts, server.WithAuthProvider(authProvider))
	} else {
		log.Warnf("No authentication configured for %s, running unauthenticated", opts.AgentName)
	}

	srv, err := server.NewA2AServer(agentCard, taskManager, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return srv, nil
}

// StartServer starts the A2A server and handles graceful shutdown
func StartServer(ctx context.Context, srv *server.A2AServer, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting A2A server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("A2A server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Infof("Shutting down A2A server...")
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// ServeHTTP runs a plain HTTP server on addr until ctx is cancelled.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting HTTP server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server on %s stopped: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// AuthUserContextKey is the request context key holding the authenticated user.
type AuthUserContextKey struct{}

// AuthMiddleware authenticates requests with provider. A nil provider lets
// every request through.
func AuthMiddleware(provider auth.Provider, next http.Handler) http.Handler {
	if provider == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := provider.Authenticate(r)
		if err != nil {
			log.Warnf("Authentication failed for %s: %v", r.RemoteAddr, err)
			ReturnJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), AuthUserContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
