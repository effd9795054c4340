// Command triageagent runs the Dr. Triage A2A agent and the Jira webhook
// listener that reviews newly created bugs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	liblog "trpc.group/trpc-go/trpc-a2a-go/log"

	"github.com/tuannvm/dr-triage/internal/agents"
	"github.com/tuannvm/dr-triage/internal/common"
	"github.com/tuannvm/dr-triage/internal/config"
	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

func main() {
	defer log.Sync()

	cfg := config.NewConfig()
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("%v", err)
	}
	// Route tRPC-A2A-Go internal logs through our logger
	liblog.Default = log.Base().Named("a2a").Sugar()

	if cfg.AgentName == "" {
		cfg.AgentName = config.TriageAgentName
	}
	if cfg.AgentURL == "" {
		cfg.AgentURL = fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort)
	}

	client, err := jira.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to configure Jira: %v", err)
	}

	reg, err := tools.NewTriageRegistry(tools.DependenciesFromConfig(cfg, client))
	if err != nil {
		log.Fatalf("Failed to build tools: %v", err)
	}
	agent := agents.NewTriageAgent(reg)

	srv, err := common.SetupServer(common.SetupServerOptions{
		AgentName:        cfg.AgentName,
		AgentDescription: "Validates, files and triages Jira bug tickets",
		AgentVersion:     cfg.AgentVersion,
		AgentURL:         cfg.AgentURL,
		AuthType:         cfg.AuthType,
		JWTSecret:        cfg.JWTSecret,
		APIKey:           cfg.APIKey,
		Processor:        agent,
		Skills:           agent.Skills(),
	})
	if err != nil {
		log.Fatalf("Failed to setup A2A server: %v", err)
	}

	provider, err := common.NewAuthProvider(cfg.AuthType, cfg.JWTSecret, cfg.APIKey)
	if err != nil {
		log.Fatalf("Failed to setup webhook auth: %v", err)
	}
	webhook := agents.NewWebhookHandler(client, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("%s serving %d tools on %s:%d", cfg.AgentName, len(reg.Tools()), cfg.ServerHost, cfg.ServerPort)
	log.Infof("Webhook endpoint: http://%s:%d/webhook", cfg.ServerHost, cfg.WebhookPort)

	errCh := make(chan error, 2)
	go func() {
		errCh <- common.StartServer(ctx, srv, cfg.ServerHost, cfg.ServerPort)
	}()
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.WebhookPort)
		errCh <- common.ServeHTTP(ctx, addr, webhook.Routes(provider))
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			log.Errorf("Server error: %v", err)
			stop()
		}
	}
	log.Infof("Server shutdown complete")
}
