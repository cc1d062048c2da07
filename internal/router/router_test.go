package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultRouter uses the production registry with no credentials, so only
// the local evaluator can answer.
func defaultRouter(t *testing.T) *Router {
	t.Helper()
	reg, err := provider.NewDefaultRegistry(context.Background(), provider.Config{})
	require.NoError(t, err)
	return New(reg, time.Second, WithWordDelay(0))
}

func TestRoute_ArithmeticWithLocalOnly(t *testing.T) {
	resp, err := defaultRouter(t).Route(context.Background(), "2 + 2")
	require.NoError(t, err)

	assert.Equal(t, classifier.Math, resp.Category)
	assert.Equal(t, 0.99, resp.Confidence)
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "local_echo", resp.ProviderID)
	assert.Contains(t, resp.Response, "4")

	require.Len(t, resp.Attempts, 2)
	assert.Equal(t, "openai", resp.Attempts[0].ProviderID)
	assert.Equal(t, provider.ErrorCodeNotConfigured, resp.Attempts[0].Code)
	assert.Equal(t, "OpenAI API key not configured. Set OPENAI_API_KEY.", resp.Attempts[0].Error)
}

func TestRoute_Greeting(t *testing.T) {
	resp, err := defaultRouter(t).Route(context.Background(), "Hello there")
	require.NoError(t, err)

	assert.Equal(t, classifier.Greeting, resp.Category)
	assert.Equal(t, 0.95, resp.Confidence)
	assert.True(t, resp.Success)
	assert.Equal(t, "local_echo", resp.ProviderID)
	assert.Contains(t, resp.Response, "limited to math calculations")
	assert.NotEmpty(t, resp.Explanation)
}

func TestRoute_RejectsEmptyPrompt(t *testing.T) {
	m := provider.NewMockProvider("m", 0.5)
	r := New(registry(t, m), time.Second)

	for _, p := range []string{"", "   ", "\n\t"} {
		resp, err := r.Route(context.Background(), p)
		assert.ErrorIs(t, err, security.ErrEmptyPrompt)
		assert.Nil(t, resp)
	}
	assert.Empty(t, m.Calls())
}

func TestRoute_AllProvidersFail(t *testing.T) {
	r := New(registry(t,
		failing("a", 0.9, "A request timeout (30s exceeded)"),
		failing("b", 0.8, "B connection error: refused"),
	), time.Second)

	resp, err := r.Route(context.Background(), "tell me something")
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "All providers failed. Last error: B connection error: refused", resp.Error)
	assert.Equal(t, "none", resp.ProviderID)
	assert.Equal(t, "None", resp.ProviderName)
}

func TestRoute_TrimsPrompt(t *testing.T) {
	m := provider.NewMockProvider("m", 0.5)
	resp, err := New(registry(t, m), time.Second).Route(context.Background(), "  what is love  ")
	require.NoError(t, err)

	assert.Equal(t, "what is love", resp.Prompt)
	assert.Equal(t, []string{"what is love"}, m.Calls())
}

func TestChat_RecordsOnSuccess(t *testing.T) {
	r := defaultRouter(t)
	sess := session.New("s")

	resp, err := r.Chat(context.Background(), sess, "6 * 7")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Message)

	assert.Equal(t, "6 * 7", resp.Message.UserPrompt)
	assert.Equal(t, "The answer to 6*7 is **42**.", resp.Message.AIResponse)
	assert.Equal(t, classifier.Math, resp.Message.Category)
	assert.Equal(t, "local_echo", resp.Message.ProviderID)
	assert.Equal(t, "Local Echo (dev)", resp.Message.ProviderName)
	assert.Equal(t, session.Stats{Messages: 1, Undo: 1}, *resp.Stats)
}

func TestChat_FailureDoesNotRecord(t *testing.T) {
	r := New(registry(t, failing("a", 0.5, "boom")), time.Second)
	sess := session.New("s")

	resp, err := r.Chat(context.Background(), sess, "hello")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Message)
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestChat_ClearsRedo(t *testing.T) {
	r := defaultRouter(t)
	sess := session.New("s")

	_, err := r.Chat(context.Background(), sess, "1 + 1")
	require.NoError(t, err)
	_, err = sess.Undo()
	require.NoError(t, err)

	resp, err := r.Chat(context.Background(), sess, "2 + 2")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stats.Redo)
}

func TestChat_CancelledDoesNotRecord(t *testing.T) {
	slow := provider.NewMockProvider("slow", 0.9)
	slow.Block = true
	r := New(registry(t, slow), time.Second)
	sess := session.New("s")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	resp, err := r.Chat(ctx, sess, "anything")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestChat_ConcurrentSessions(t *testing.T) {
	r := defaultRouter(t)
	mgr := session.NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sess := mgr.GetOrCreate(id)
			for j := 0; j < 5; j++ {
				_, err := r.Chat(context.Background(), sess, "3 + 4")
				assert.NoError(t, err)
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	mgr.Range(func(s *session.Session) bool {
		assert.Equal(t, 5, s.Stats().Messages, s.ID())
		return true
	})
}

func TestStream_DeliversWordsThenRecords(t *testing.T) {
	r := defaultRouter(t)
	sess := session.New("s")

	var chunks []string
	resp, err := r.Stream(context.Background(), sess, "10 / 4", func(chunk string) error {
		assert.Equal(t, 0, sess.Stats().Messages, "recorded before delivery finished")
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, []string{"The ", "answer ", "to ", "10/4 ", "is ", "**2.5**. "}, chunks)
	assert.Equal(t, "The answer to 10/4 is **2.5**.", strings.TrimSpace(strings.Join(chunks, "")))
	assert.Equal(t, 1, sess.Stats().Messages)
	assert.Equal(t, resp.Response, sess.Messages()[0].AIResponse)
}

func TestStream_Error(t *testing.T) {
	r := New(registry(t, failing("a", 0.5, "A HTTP error 500")), time.Second)
	sess := session.New("s")

	var chunks []string
	resp, err := r.Stream(context.Background(), sess, "hello", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"[ERROR] All providers failed. Last error: A HTTP error 500"}, chunks)
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestStream_AbortedDeliveryDoesNotRecord(t *testing.T) {
	r := defaultRouter(t)
	sess := session.New("s")
	errGone := errors.New("client went away")

	n := 0
	_, err := r.Stream(context.Background(), sess, "1 + 1", func(string) error {
		n++
		if n == 2 {
			return errGone
		}
		return nil
	})
	assert.ErrorIs(t, err, errGone)
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestStream_WordDelayHonoursCancel(t *testing.T) {
	reg, err := provider.NewDefaultRegistry(context.Background(), provider.Config{})
	require.NoError(t, err)
	r := New(reg, time.Second, WithWordDelay(time.Hour))
	sess := session.New("s")

	ctx, cancel := context.WithCancel(context.Background())
	_, err = r.Stream(ctx, sess, "1 + 1", func(string) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sess.Stats().Messages)
}

func TestStream_RejectsEmpty(t *testing.T) {
	called := false
	_, err := defaultRouter(t).Stream(context.Background(), session.New("s"), " ", func(string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, security.ErrEmptyPrompt)
	assert.False(t, called)
}

func TestProcessPending(t *testing.T) {
	r := defaultRouter(t)
	sess := session.New("s")
	sess.EnqueuePending("2 + 3")
	sess.EnqueuePending("9 - 4")

	resp, err := r.ProcessPending(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "2 + 3", resp.Prompt)
	assert.Equal(t, session.Stats{Messages: 1, Pending: 1, Undo: 1}, *resp.Stats)

	resp, err = r.ProcessPending(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "9 - 4", resp.Prompt)

	_, err = r.ProcessPending(context.Background(), sess)
	assert.ErrorIs(t, err, session.ErrQueueEmpty)
}

func TestProcessPending_FailureDropsPrompt(t *testing.T) {
	r := New(registry(t, failing("a", 0.5, "down")), time.Second)
	sess := session.New("s")
	sess.EnqueuePending("hello")

	resp, err := r.ProcessPending(context.Background(), sess)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, session.Stats{}, sess.Stats())
}

func TestRouter_ProvidersAndRank(t *testing.T) {
	r := defaultRouter(t)

	var ids []string
	for _, d := range r.Providers() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"gemini", "openai", "claude", "local_echo"}, ids)

	result, ranked := r.Rank("2 + 2")
	assert.Equal(t, classifier.Math, result.Category)
	require.Len(t, ranked, 4)
	assert.Equal(t, "openai", ranked[0].Provider.Descriptor().ID)
	assert.Equal(t, "local_echo", ranked[1].Provider.Descriptor().ID)
}

func TestRouter_WithClassifier(t *testing.T) {
	custom := classifier.New(classifier.Rule{
		Name:       "always-news",
		Category:   classifier.News,
		Confidence: 0.5,
		Keywords:   []string{"news"},
		Contains:   []string{""},
	})
	r := New(registry(t, provider.NewMockProvider("m", 0.5)), time.Second, WithClassifier(custom))

	assert.Equal(t, classifier.News, r.Classify("anything").Category)
}
