package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"greened-backend/logger"
)

const ecoMentorPrompt = "You are EcoMentor, a friendly mentor helping students in Punjab learn about the environment. " +
	"Be concise, supportive, and actionable. Provide clear steps, explain briefly, and tailor examples to " +
	"India/Punjab context when helpful. Avoid making claims that require external verification. If users ask " +
	"about challenges or quizzes, guide them with tips and encouragement."

const (
	DefaultChatModel  = "openai/gpt-4o"
	chatTemperature   = 0.7
	chatMaxTokens     = 600
	maxChatMessages   = 50
	maxMessageLength  = 4000
	errorBodyReadSize = 1024
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatReply records which source produced the answer.
type ChatReply struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Responder is one step of the chat fallback chain.
type Responder interface {
	Name() string
	Respond(ctx context.Context, messages []ChatMessage, model string) (string, error)
}

var ErrNoResponder = errors.New("no chat responder could answer")

type ChatService struct {
	Chain []Responder
	Model string // used when a request names none
	Log   *logger.Logger
}

func NewChatService(log *logger.Logger, chain ...Responder) *ChatService {
	return &ChatService{Chain: chain, Model: DefaultChatModel, Log: log.With("service", "ChatService")}
}

// Reply prepends the mentor prompt and asks each responder in turn, once.
func (s *ChatService) Reply(ctx context.Context, messages []ChatMessage, model string) (*ChatReply, error) {
	if len(messages) == 0 {
		return nil, invalid("messages are required")
	}
	if len(messages) > maxChatMessages {
		return nil, invalid("at most %d messages are allowed", maxChatMessages)
	}
	for _, m := range messages {
		if len(m.Content) > maxMessageLength {
			return nil, invalid("message content exceeds %d characters", maxMessageLength)
		}
	}
	if model == "" {
		model = s.Model
	}
	if model == "" {
		model = DefaultChatModel
	}

	full := make([]ChatMessage, 0, len(messages)+1)
	full = append(full, ChatMessage{Role: "system", Content: ecoMentorPrompt})
	full = append(full, messages...)

	var errs []error
	for _, r := range s.Chain {
		content, err := r.Respond(ctx, full, model)
		if err == nil && strings.TrimSpace(content) != "" {
			return &ChatReply{Content: content, Source: r.Name()}, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		s.Log.Warn("chat responder failed, falling back", "responder", r.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoResponder, errors.Join(errs...))
}

// lastUserMessage returns the most recent user turn.
func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// ---------- OpenRouter ----------

// OpenRouterResponder calls an OpenAI-compatible chat completions endpoint.
type OpenRouterResponder struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
}

func NewOpenRouterResponder(client *http.Client, apiKey, apiURL string) *OpenRouterResponder {
	return &OpenRouterResponder{httpClient: client, apiKey: apiKey, apiURL: apiURL}
}

func (r *OpenRouterResponder) Name() string { return "openrouter" }

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *OpenRouterResponder) Respond(ctx context.Context, messages []ChatMessage, model string) (string, error) {
	if r.apiKey == "" {
		return "", errors.New("api key is not configured")
	}
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Title", "GreenEd Punjab")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadSize))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("api error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

// ---------- Knowledge lookup ----------

// KnowledgeResponder answers from a page summary API (Wikipedia REST shape).
type KnowledgeResponder struct {
	httpClient *http.Client
	baseURL    string
}

func NewKnowledgeResponder(client *http.Client, baseURL string) *KnowledgeResponder {
	return &KnowledgeResponder{httpClient: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *KnowledgeResponder) Name() string { return "knowledge" }

type pageSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// stopWords are dropped when turning a question into a page title.
var stopWords = map[string]bool{
	"what": true, "is": true, "are": true, "the": true, "a": true, "an": true, "how": true,
	"why": true, "does": true, "do": true, "can": true, "i": true, "of": true, "about": true,
	"tell": true, "me": true, "explain": true, "please": true, "to": true, "in": true,
}

// topicFromQuestion turns "What is composting?" into "Composting".
func topicFromQuestion(q string) string {
	fields := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})
	var kept []string
	for _, f := range fields {
		if !stopWords[f] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) > 4 {
		kept = kept[:4]
	}
	topic := strings.Join(kept, "_")
	return strings.ToUpper(topic[:1]) + topic[1:]
}

func (r *KnowledgeResponder) Respond(ctx context.Context, messages []ChatMessage, _ string) (string, error) {
	topic := topicFromQuestion(lastUserMessage(messages))
	if topic == "" {
		return "", errors.New("no topic in question")
	}

	endpoint := r.baseURL + "/" + url.PathEscape(topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d for %q", resp.StatusCode, topic)
	}

	var page pageSummary
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return "", fmt.Errorf("failed to decode summary: %w", err)
	}
	if strings.TrimSpace(page.Extract) == "" {
		return "", fmt.Errorf("empty summary for %q", topic)
	}
	return fmt.Sprintf("Here is what I found about %s: %s", page.Title, page.Extract), nil
}

// ---------- Local templates ----------

type topicTemplate struct {
	keywords []string
	reply    string
}

// TemplateResponder answers from canned guidance keyed by topic words.
type TemplateResponder struct {
	templates []topicTemplate
}

func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{templates: defaultTemplates}
}

func (r *TemplateResponder) Name() string { return "template" }

// defaultTemplateReply answers anything no topic template recognizes.
const defaultTemplateReply = "I'm EcoMentor, your guide to Punjab's environment. I can help with " +
	"tree planting, saving water, waste and composting, stubble burning and climate change. " +
	"Ask me about one of those, or open a learning module to earn points along the way."

var defaultTemplates = []topicTemplate{
	{
		keywords: []string{"stubble", "parali", "burning", "crop residue"},
		reply: "Stubble burning adds heavy smoke to Punjab's air every autumn. Ask your family about " +
			"happy seeders or mulching residue back into the soil, and share what you learn in the " +
			"Community forum.",
	},
	{
		keywords: []string{"water", "groundwater", "irrigation", "rain"},
		reply: "Punjab's groundwater is falling fast. Try a water audit at home: fix one leak, collect " +
			"rainwater for plants, and log the litres you saved as an eco task.",
	},
	{
		keywords: []string{"tree", "plant", "sapling", "forest"},
		reply: "Planting a native sapling like neem or peepal is a great start. Water it regularly for " +
			"the first summer and upload a photo to a tree planting challenge.",
	},
	{
		keywords: []string{"waste", "plastic", "recycle", "compost"},
		reply: "Separate wet and dry waste at home. Wet waste can become compost in about six weeks, " +
			"and dry waste like plastic bottles can be recycled.",
	},
	{
		keywords: []string{"climate", "warming", "carbon", "emission"},
		reply: "Climate change comes mostly from burning fossil fuels. Small steps like cycling to " +
			"school or switching off unused lights cut emissions. The climate module has more.",
	},
	{
		keywords: []string{"quiz", "challenge", "points", "badge", "level"},
		reply: "Finish a module, then take its quiz. Passing earns full points and trying still earns " +
			"half. Eco challenges add more, and badges unlock at 100, 250, 500 and 1000 points.",
	},
}

func (r *TemplateResponder) Respond(_ context.Context, messages []ChatMessage, _ string) (string, error) {
	q := strings.ToLower(lastUserMessage(messages))
	if q == "" {
		return "", errors.New("no user message")
	}
	for _, t := range r.templates {
		for _, k := range t.keywords {
			if strings.Contains(q, k) {
				return t.reply, nil
			}
		}
	}
	return defaultTemplateReply, nil
}

// NewHTTPChatService builds the standard chain: OpenRouter, then the knowledge
// lookup, then local templates.
func NewHTTPChatService(log *logger.Logger, client *http.Client, apiKey, apiURL, knowledgeURL string) *ChatService {
	chain := []Responder{NewOpenRouterResponder(client, apiKey, apiURL)}
	if knowledgeURL != "" {
		chain = append(chain, NewKnowledgeResponder(client, knowledgeURL))
	}
	chain = append(chain, NewTemplateResponder())
	return NewChatService(log, chain...)
}
