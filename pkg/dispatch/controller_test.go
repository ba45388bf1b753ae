package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/session"
)

type capturedRequest struct {
	method      string
	contentType string
	body        Request
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
}

func (r *recorder) Requests() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]capturedRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

func newEndpoint(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req Request
		assert.NoError(t, json.Unmarshal(raw, &req))
		rec.mu.Lock()
		rec.requests = append(rec.requests, capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			body:        req,
		})
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newController(endpoint string, opts ...Option) *Controller {
	return NewController(conversation.New(), session.NewConfiguration(endpoint), opts...)
}

func contents(msgs []conversation.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, string(m.Role)+":"+m.Content)
	}
	return out
}

func TestSendSuccessAppendsReply(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"Hello back"}`)
	c := newController(srv.URL)

	reply, ok := c.Send(context.Background(), "Hi")
	require.True(t, ok)
	require.NotNil(t, reply)

	assert.Equal(t, []string{
		"assistant:" + conversation.Greeting,
		"user:Hi",
		"assistant:Hello back",
	}, contents(c.Conversation().Messages()))
	assert.False(t, c.Loading())

	reqs := captured.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, "Hi", req.body.Message)
	assert.Equal(t, []conversation.HistoryEntry{
		{Role: conversation.RoleAssistant, Content: conversation.Greeting},
	}, req.body.History)
}

func TestSendTrimsInput(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"ok"}`)
	c := newController(srv.URL)

	_, ok := c.Send(context.Background(), "  \n hello there \t")
	require.True(t, ok)

	msgs := c.Conversation().Messages()
	assert.Equal(t, "hello there", msgs[1].Content)
	assert.Equal(t, "hello there", captured.Requests()[0].body.Message)
}

func TestHistoryExcludesCurrentMessage(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"ok"}`)
	c := newController(srv.URL)

	_, ok := c.Send(context.Background(), "first")
	require.True(t, ok)
	_, ok = c.Send(context.Background(), "second")
	require.True(t, ok)

	reqs := captured.Requests()
	require.Len(t, reqs, 2)
	second := reqs[1].body
	assert.Equal(t, "second", second.Message)
	assert.Equal(t, []conversation.HistoryEntry{
		{Role: conversation.RoleAssistant, Content: conversation.Greeting},
		{Role: conversation.RoleUser, Content: "first"},
		{Role: conversation.RoleAssistant, Content: "ok"},
	}, second.History)
}

func TestSendWindowLimitsOutboundHistoryOnly(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"ok"}`)
	c := newController(srv.URL, WithWindow(conversation.LastN{Max: 1}))

	c.Send(context.Background(), "first")
	c.Send(context.Background(), "second")

	assert.Equal(t, 5, c.Conversation().Len())
	assert.Equal(t, []conversation.HistoryEntry{
		{Role: conversation.RoleAssistant, Content: "ok"},
	}, captured.Requests()[1].body.History)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newController(url)
	reply, ok := c.Send(context.Background(), "Hi")
	require.True(t, ok)

	msgs := c.Conversation().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, conversation.RoleUser, msgs[1].Role)
	assert.Equal(t, conversation.RoleAssistant, msgs[2].Role)
	assert.Equal(t, reply.ID, msgs[2].ID)
	assert.True(t, strings.HasPrefix(msgs[2].Content, "Error: "))
	assert.True(t, strings.HasSuffix(msgs[2].Content, ". Please check your endpoint."))
	assert.False(t, c.Loading())
}

func TestSendMalformedEndpoint(t *testing.T) {
	c := newController("://not-a-url")
	_, ok := c.Send(context.Background(), "Hi")
	require.True(t, ok)

	last, _ := c.Conversation().Last()
	assert.Contains(t, last.Content, "Error:")
	assert.Contains(t, last.Content, "Please check your endpoint")
	assert.False(t, c.Loading())
}

func TestSendStatusFailure(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusInternalServerError, `{"response":"ignored"}`)
	c := newController(srv.URL)

	_, ok := c.Send(context.Background(), "Hi")
	require.True(t, ok)

	msgs := c.Conversation().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Error: HTTP error! status: 500. Please check your endpoint.", msgs[2].Content)
	assert.False(t, c.Loading())
}

func TestSendParseFailure(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusOK, `<html>nope</html>`)
	c := newController(srv.URL)

	_, ok := c.Send(context.Background(), "Hi")
	require.True(t, ok)

	last, _ := c.Conversation().Last()
	assert.True(t, strings.HasPrefix(last.Content, "Error: invalid character"))
	assert.False(t, c.Loading())
}

func TestReplyFieldPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"response wins", `{"response":"r","message":"m"}`, "r"},
		{"message when no response", `{"message":"m"}`, "m"},
		{"empty response falls through", `{"response":"","message":"m"}`, "m"},
		{"empty object", `{}`, FallbackReply},
		{"non string fields", `{"response":42,"message":{"a":1}}`, FallbackReply},
		{"array body", `["response"]`, FallbackReply},
		{"null body", `null`, FallbackReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newEndpoint(t, http.StatusOK, tt.body)
			c := newController(srv.URL)
			reply, ok := c.Send(context.Background(), "Hi")
			require.True(t, ok)
			assert.Equal(t, tt.want, reply.Content)
		})
	}
}

func TestSendRejectsBlankInput(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"x"}`)
	accepted := 0
	c := newController(srv.URL, WithAcceptHook(func() { accepted++ }))

	for _, in := range []string{"", "   ", "\n\t "} {
		reply, ok := c.Send(context.Background(), in)
		assert.False(t, ok)
		assert.Nil(t, reply)
	}
	assert.Equal(t, 1, c.Conversation().Len())
	assert.False(t, c.Loading())
	assert.Empty(t, captured.Requests())
	assert.Zero(t, accepted)
}

func TestSendRejectedWhileLoading(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"response":"late"}`)
	}))
	defer srv.Close()

	c := newController(srv.URL)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Send(context.Background(), "first")
	}()

	require.Eventually(t, c.Loading, time.Second, 5*time.Millisecond)
	require.Equal(t, 2, c.Conversation().Len())

	_, ok := c.Send(context.Background(), "second")
	assert.False(t, ok)
	_, ok = c.Begin("third")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Conversation().Len())
	assert.True(t, c.Loading())

	close(release)
	<-done

	assert.False(t, c.Loading())
	assert.Equal(t, []string{
		"assistant:" + conversation.Greeting,
		"user:first",
		"assistant:late",
	}, contents(c.Conversation().Messages()))
}

func TestBeginIsSynchronous(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusOK, `{"message":"from message"}`)
	cleared := false
	c := newController(srv.URL, WithAcceptHook(func() { cleared = true }))

	ex, ok := c.Begin("Hi")
	require.True(t, ok)
	assert.True(t, cleared)
	assert.True(t, c.Loading())
	assert.Equal(t, 2, c.Conversation().Len())
	last, _ := c.Conversation().Last()
	assert.Equal(t, ex.UserMessage.ID, last.ID)

	reply := ex.Do(context.Background())
	require.NotNil(t, reply)
	assert.Equal(t, "from message", reply.Content)
	assert.False(t, c.Loading())

	assert.Nil(t, ex.Do(context.Background()))
	assert.Equal(t, 3, c.Conversation().Len())
}

type panicExchanger struct{}

func (panicExchanger) Exchange(context.Context, string, *Request) (*Reply, error) {
	panic("boom")
}

func TestLoadingClearedOnPanic(t *testing.T) {
	c := newController("http://unused", WithExchanger(panicExchanger{}))

	ex, ok := c.Begin("Hi")
	require.True(t, ok)
	require.Panics(t, func() { ex.Do(context.Background()) })
	assert.False(t, c.Loading())

	_, ok = c.Begin("again")
	assert.True(t, ok)
}

type blockingExchanger struct {
	started chan struct{}
}

func (b blockingExchanger) Exchange(ctx context.Context, _ string, _ *Request) (*Reply, error) {
	close(b.started)
	<-ctx.Done()
	return nil, &TransportError{Err: ctx.Err()}
}

func TestCancelledExchangeRecordsSingleFailure(t *testing.T) {
	ex := blockingExchanger{started: make(chan struct{})}
	c := newController("http://unused", WithExchanger(ex))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *conversation.Message)
	go func() {
		reply, _ := c.Send(ctx, "Hi")
		done <- reply
	}()
	<-ex.started
	cancel()
	reply := <-done

	assert.Equal(t, "Error: context canceled. Please check your endpoint.", reply.Content)
	assert.Equal(t, 3, c.Conversation().Len())
	assert.False(t, c.Loading())
}

func TestResetDuringFlightKeepsReply(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusOK, `{"response":"after reset"}`)
	c := newController(srv.URL)

	ex, ok := c.Begin("Hi")
	require.True(t, ok)
	c.Reset()
	require.Equal(t, 1, c.Conversation().Len())

	ex.Do(context.Background())
	assert.Equal(t, []string{
		"assistant:" + conversation.Greeting,
		"assistant:after reset",
	}, contents(c.Conversation().Messages()))
}

func TestEndpointReadAtExchangeTime(t *testing.T) {
	srv, captured := newEndpoint(t, http.StatusOK, `{"response":"ok"}`)
	c := newController("http://127.0.0.1:1/never")

	ex, ok := c.Begin("Hi")
	require.True(t, ok)
	c.Configuration().SetEndpoint(srv.URL)
	ex.Do(context.Background())

	assert.Len(t, captured.Requests(), 1)
}

func TestTurnCompletionProperty(t *testing.T) {
	okSrv, _ := newEndpoint(t, http.StatusOK, `{"response":"fine"}`)
	badSrv, _ := newEndpoint(t, http.StatusBadGateway, ``)
	c := newController(okSrv.URL)

	inputs := []string{"a", " b ", "c\n", "d"}
	for i, in := range inputs {
		if i%2 == 1 {
			c.Configuration().SetEndpoint(badSrv.URL)
		} else {
			c.Configuration().SetEndpoint(okSrv.URL)
		}
		before := c.Conversation().Len()
		_, ok := c.Send(context.Background(), in)
		require.True(t, ok)
		assert.Equal(t, before+2, c.Conversation().Len())
		assert.False(t, c.Loading())
	}

	seen := map[conversation.MessageID]bool{}
	for _, m := range c.Conversation().Messages() {
		require.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}
