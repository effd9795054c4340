package agents

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-a2a-go/auth"

	"github.com/tuannvm/dr-triage/internal/common"
	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/triage"
)

const maxWebhookBody = 1 << 20

// WebhookHandler reviews newly created Jira bugs and comments on the ones
// that are missing information.
type WebhookHandler struct {
	reviewer    *triage.Reviewer
	postComment bool
}

// NewWebhookHandler creates a WebhookHandler. With postComment unset, reviews
// are reported in the response only.
func NewWebhookHandler(tracker jira.JiraClientInterface, postComment bool) *WebhookHandler {
	return &WebhookHandler{
		reviewer:    triage.NewReviewer(tracker),
		postComment: postComment,
	}
}

// Routes returns a mux serving the handler at /webhook behind provider.
func (h *WebhookHandler) Routes(provider auth.Provider) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/webhook", common.AuthMiddleware(provider, h))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ServeHTTP processes Jira webhook requests
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get("X-Atlassian-Webhook-Identifier")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if r.Method != http.MethodPost {
		log.Warnf("[%s] Method not allowed: %s", requestID, r.Method)
		common.ReturnJSONError(w, http.StatusMethodNotAllowed, "Method not allowed: Only POST requests are accepted")
		return
	}

	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		log.Warnf("[%s] Invalid content type: %s", requestID, r.Header.Get("Content-Type"))
		common.ReturnJSONError(w, http.StatusUnsupportedMediaType, "Content type must be application/json")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		common.ReturnJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}
	if len(body) == 0 {
		common.ReturnJSONError(w, http.StatusBadRequest, "Request body cannot be empty")
		return
	}

	hook, err := jira.TransformJiraWebhook(body)
	if err != nil {
		log.Warnf("[%s] %v", requestID, err)
		common.ReturnJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Infof("[%s] Webhook for %s: event=%s type=%s", requestID, hook.TicketID, hook.Event, hook.IssueType)

	response := map[string]interface{}{
		"requestId": requestID,
		"ticketId":  hook.TicketID,
		"event":     hook.Event,
	}

	if hook.Event != "created" || !hook.IsBug() {
		response["status"] = "ignored"
		response["message"] = "only newly created bugs are reviewed"
		common.WriteJSON(w, http.StatusOK, response)
		return
	}

	outcome, err := h.reviewer.Review(r.Context(), hook.TicketID, h.postComment)
	if err != nil {
		log.Errorf("[%s] Review of %s failed: %v", requestID, hook.TicketID, err)
		common.ReturnJSONError(w, http.StatusBadGateway, fmt.Sprintf("Failed to review %s: %v", hook.TicketID, err))
		return
	}

	response["status"] = "reviewed"
	response["review"] = outcome
	common.WriteJSON(w, http.StatusOK, response)
	log.Infof("[%s] Webhook processed in %v", requestID, time.Since(start))
}
