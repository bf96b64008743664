package llm

import (
	"context"
	"time"

	"github.com/agentmesh/core/internal/backoff"
	"github.com/agentmesh/core/internal/ratelimit"
	"github.com/agentmesh/core/pkg/models"
)

// Client is the unified chat interface described by the LLM client
// component: a blocking Chat, a token-streamed ChatStream, and a
// tool-augmented ChatWithTools, all enforcing local rate limiting and retry
// with exponential backoff in front of a single Provider.
type Client struct {
	provider   Provider
	bucket     *ratelimit.Bucket
	policy     backoff.Policy
	maxRetries int
}

// Config constructs a Client. Endpoint/key validation belongs to the
// concrete Provider (it fails fast at construction with a KindConfig
// Error); Config only wires the ambient rate limit and retry policy.
type Config struct {
	Provider       Provider
	RateLimitCount int           // tokens per RateLimitEvery; 0 disables limiting
	RateLimitEvery time.Duration // defaults to time.Second
	Burst          int
	RetryPolicy    backoff.Policy // defaults to backoff.LLMPolicy()
	MaxRetries     int            // defaults to 3
}

// New builds a Client around the given provider and rate/retry
// configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Provider == nil {
		return nil, configError("client", errMissingProvider)
	}
	bucket := ratelimit.Unlimited()
	if cfg.RateLimitCount > 0 {
		every := cfg.RateLimitEvery
		if every <= 0 {
			every = time.Second
		}
		bucket = ratelimit.New(cfg.RateLimitCount, every, cfg.Burst)
	}
	policy := cfg.RetryPolicy
	if policy == (backoff.Policy{}) {
		policy = backoff.LLMPolicy()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{provider: cfg.Provider, bucket: bucket, policy: policy, maxRetries: maxRetries}, nil
}

var errMissingProvider = clientErr("client requires a non-nil Provider")

type clientErr string

func (e clientErr) Error() string { return string(e) }

func (c *Client) buildRequest(messages []models.ChatMessage, opts ChatOptions) Request {
	return Request{
		Model:         opts.Model,
		Messages:      messages,
		Tools:         opts.Tools,
		ToolChoice:    opts.ToolChoice,
		Temperature:   opts.Temperature,
		MaxTokens:     opts.MaxTokens,
		TopP:          opts.TopP,
		StopSequences: opts.StopSequences,
	}
}

func (c *Client) effectiveTimeout(opts ChatOptions) time.Duration {
	if opts.TimeoutOverride > 0 {
		return opts.TimeoutOverride
	}
	return 60 * time.Second
}

// Chat issues a single blocking completion call. It acquires one rate-limit
// token, then drains the provider's stream into a single ChatResponse,
// retrying the whole attempt on transport/429/5xx failures up to
// opts.MaxRetries (or the client default).
func (c *Client) Chat(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (*models.ChatResponse, error) {
	req := c.buildRequest(messages, opts)
	maxRetries := c.maxRetries
	if opts.MaxRetries > 0 {
		maxRetries = opts.MaxRetries
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.effectiveTimeout(opts))
	defer cancel()

	// backoff.Do's maxAttempts is a total-attempt count, but maxRetries is a
	// retry count: a call that fails must be attempted once, then retried
	// maxRetries times, for maxRetries+1 attempts in total.
	result, err := backoff.Do(attemptCtx, c.policy, maxRetries+1, Retryable, func(int) (*models.ChatResponse, error) {
		if !opts.disableRateLimit {
			if err := c.bucket.Acquire(attemptCtx); err != nil {
				return nil, c.classifyContextErr(err)
			}
		}
		deltas, err := c.provider.Stream(attemptCtx, req)
		if err != nil {
			return nil, err
		}
		return drain(c.provider.Name(), deltas)
	})
	if err != nil {
		if result.LastErr != nil {
			return nil, result.LastErr
		}
		return nil, err
	}
	return result.Value, nil
}

// ChatWithTools is Chat with ToolChoice forced to "auto" and Tools attached,
// documenting that the returned response's ToolCalls field may be
// populated.
func (c *Client) ChatWithTools(ctx context.Context, messages []models.ChatMessage, tools []models.ToolSchema, opts ChatOptions) (*models.ChatResponse, error) {
	return c.Chat(ctx, messages, WithToolsAuto(opts, tools))
}

// ChatStream issues a single streamed completion and returns a finite,
// forward-only channel of content deltas. It is restartable only by calling
// ChatStream again from the beginning; there is no mid-stream resume.
// Unlike Chat, a failure mid-stream is surfaced as an error delta rather
// than retried, since partial output has already been observed by the
// caller.
func (c *Client) ChatStream(ctx context.Context, messages []models.ChatMessage, opts ChatOptions) (<-chan models.ChatDelta, error) {
	req := c.buildRequest(messages, opts)
	attemptCtx, cancel := context.WithTimeout(ctx, c.effectiveTimeout(opts))

	if !opts.disableRateLimit {
		if err := c.bucket.Acquire(attemptCtx); err != nil {
			cancel()
			return nil, c.classifyContextErr(err)
		}
	}

	deltas, err := c.provider.Stream(attemptCtx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan models.ChatDelta)
	go func() {
		defer cancel()
		defer close(out)
		for d := range deltas {
			out <- d
			if d.Done || d.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) classifyContextErr(err error) error {
	return timeoutError(c.provider.Name(), err)
}

// drain consumes a delta channel to completion and assembles a
// ChatResponse, buffering content and deferring tool-call assembly to the
// terminal delta as the streaming contract requires.
func drain(provider string, deltas <-chan models.ChatDelta) (*models.ChatResponse, error) {
	resp := &models.ChatResponse{CreatedAt: time.Now()}
	var content []byte
	for d := range deltas {
		if d.Err != nil {
			return nil, d.Err
		}
		content = append(content, d.Content...)
		if d.Done {
			resp.FinishReason = d.Finish
			resp.ToolCalls = d.ToolCalls
			resp.Usage = d.Usage
			break
		}
	}
	resp.Content = string(content)
	if resp.FinishReason == "" {
		return nil, transportError(provider, errStreamClosedEarly)
	}
	return resp, nil
}

var errStreamClosedEarly = clientErr("llm: provider stream closed before a terminal delta")
