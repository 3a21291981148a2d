package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"greened-backend/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	name  string
	reply string
	err   error
	calls int
	seen  []ChatMessage
	model string
}

func (s *stubResponder) Name() string { return s.name }

func (s *stubResponder) Respond(_ context.Context, messages []ChatMessage, model string) (string, error) {
	s.calls++
	s.seen = messages
	s.model = model
	return s.reply, s.err
}

func TestChatFallsBackInOrder(t *testing.T) {
	failing := &stubResponder{name: "primary", err: errors.New("boom")}
	empty := &stubResponder{name: "secondary", reply: "   "}
	last := &stubResponder{name: "tertiary", reply: "hello"}
	svc := NewChatService(logger.NewNop(), failing, empty, last)

	reply, err := svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)
	assert.Equal(t, "tertiary", reply.Source)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)

	require.Len(t, last.seen, 2)
	assert.Equal(t, "system", last.seen[0].Role)
	assert.Contains(t, last.seen[0].Content, "EcoMentor")
}

func TestChatAllRespondersFail(t *testing.T) {
	svc := NewChatService(logger.NewNop(), &stubResponder{name: "a", err: errors.New("down")})
	_, err := svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "")
	require.ErrorIs(t, err, ErrNoResponder)
	assert.Contains(t, err.Error(), "a: down")
}

func TestChatValidatesMessages(t *testing.T) {
	svc := NewChatService(logger.NewNop(), NewTemplateResponder())
	_, err := svc.Reply(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: strings.Repeat("x", maxMessageLength+1)}}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	many := make([]ChatMessage, maxChatMessages+1)
	for i := range many {
		many[i] = ChatMessage{Role: "user", Content: "x"}
	}
	_, err = svc.Reply(context.Background(), many, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOpenRouterResponder(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Plant neem."}}]}`))
	}))
	defer srv.Close()

	r := NewOpenRouterResponder(srv.Client(), "key-1", srv.URL)
	out, err := r.Respond(context.Background(), []ChatMessage{{Role: "user", Content: "tree?"}}, DefaultChatModel)
	require.NoError(t, err)
	assert.Equal(t, "Plant neem.", out)
	assert.Equal(t, DefaultChatModel, got.Model)
	assert.Equal(t, chatMaxTokens, got.MaxTokens)

	_, err = NewOpenRouterResponder(srv.Client(), "", srv.URL).Respond(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestHTTPChainFallsBackToKnowledgeThenTemplate(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch {
		case strings.HasPrefix(r.URL.Path, "/chat"):
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		case r.URL.Path == "/summary/Composting":
			_, _ = w.Write([]byte(`{"title":"Compost","extract":"Compost is decomposed organic matter."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc := NewHTTPChatService(logger.NewNop(), srv.Client(), "key", srv.URL+"/chat", srv.URL+"/summary")

	reply, err := svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "What is composting?"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "knowledge", reply.Source)
	assert.Contains(t, reply.Content, "decomposed organic matter")

	reply, err = svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "Why is stubble burning bad?"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "template", reply.Source)
	assert.Contains(t, reply.Content, "Stubble burning")
	assert.Contains(t, paths, "/chat")
}

func TestTopicFromQuestion(t *testing.T) {
	assert.Equal(t, "Composting", topicFromQuestion("What is composting?"))
	assert.Equal(t, "Climate_change", topicFromQuestion("Tell me about climate change"))
	assert.Equal(t, "", topicFromQuestion("what is the"))
}

func TestChatModelSelection(t *testing.T) {
	stub := &stubResponder{name: "a", reply: "ok"}
	svc := NewChatService(logger.NewNop(), stub)
	svc.Model = "meta/llama-3"

	_, err := svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "meta/llama-3", stub.model)

	_, err = svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "openai/gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", stub.model)

	svc.Model = ""
	_, err = svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultChatModel, stub.model)
}

func TestTemplateResponderDefaultReply(t *testing.T) {
	r := NewTemplateResponder()

	out, err := r.Respond(context.Background(), []ChatMessage{{Role: "user", Content: "hello there"}}, "")
	require.NoError(t, err)
	assert.Equal(t, defaultTemplateReply, out)

	out, err = r.Respond(context.Background(), []ChatMessage{{Role: "user", Content: "I want to plant a tree"}}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "neem")

	_, err = r.Respond(context.Background(), []ChatMessage{{Role: "assistant", Content: "hi"}}, "")
	assert.Error(t, err, "no user turn to answer")

	svc := NewChatService(logger.NewNop(), &stubResponder{name: "upstream", err: errors.New("down")}, r)
	reply, err := svc.Reply(context.Background(), []ChatMessage{{Role: "user", Content: "hello"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "template", reply.Source)
	assert.Contains(t, reply.Content, "EcoMentor")
}
