package application

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/argus-eval/argus/infrastructure/document"
	"github.com/argus-eval/argus/infrastructure/llm"
	"github.com/argus-eval/argus/infrastructure/metrics"
	"github.com/argus-eval/argus/infrastructure/prompts"
	"github.com/argus-eval/argus/infrastructure/search"
	"github.com/argus-eval/argus/internal/ports"
	"github.com/argus-eval/argus/internal/workflow/factcheck"
	"github.com/argus-eval/argus/internal/workflow/review"
)

// Config is the single configuration object for the evaluation engine.
// It is constructed once at process start and passed into every
// component; nothing reads configuration ambiently after that.
type Config struct {
	// LLM selects and tunes the completion provider.
	LLM LLMConfig `mapstructure:"llm" validate:"required"`

	// Search holds the evidence-source credentials. Tavily serves general
	// web queries; arXiv needs no key; Scholar is enabled only when a
	// SerpAPI key is present.
	Search SearchConfig `mapstructure:"search"`

	// Review tunes the panel-review workflow.
	Review ReviewConfig `mapstructure:"review" validate:"required"`
}

// LLMConfig selects the completion provider and its middleware budget.
type LLMConfig struct {
	// Provider is the completion backend to use.
	Provider string `mapstructure:"provider" validate:"required,oneof=openai anthropic google"`
	// Model is the provider-specific model name; empty uses the
	// provider's default.
	Model string `mapstructure:"model"`
	// APIKey authenticates against the provider.
	APIKey string `mapstructure:"api_key" validate:"required"`
	// BaseURL overrides the provider endpoint, for proxies and tests.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// Timeout bounds a single completion request.
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
	// RetryDelay is the fixed wait before the single retry of a failed
	// request.
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	// RequestsPerSecond throttles outbound completion calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	// Burst is the rate limiter's burst allowance.
	Burst int `mapstructure:"burst" validate:"min=1"`
}

// SearchConfig holds evidence-source credentials and caching policy.
type SearchConfig struct {
	TavilyAPIKey  string        `mapstructure:"tavily_api_key"`
	SerpAPIKey    string        `mapstructure:"serpapi_key"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	ArxivBaseURL  string        `mapstructure:"arxiv_base_url" validate:"omitempty,url"`
	TavilyBaseURL string        `mapstructure:"tavily_base_url" validate:"omitempty,url"`
}

// ReviewConfig tunes the panel-review workflow.
type ReviewConfig struct {
	// NumReviewers is the panel size.
	NumReviewers int `mapstructure:"num_reviewers" validate:"min=1,max=10"`
	// NumSubQueries is how many sub-questions each review question
	// decomposes into.
	NumSubQueries int `mapstructure:"num_sub_queries" validate:"min=1,max=10"`
	// PassageWords sizes the retrieval passages, in words.
	PassageWords int `mapstructure:"passage_words" validate:"min=20,max=2000"`
	// TopPassages is how many passages ground each answer.
	TopPassages int `mapstructure:"top_passages" validate:"min=1,max=20"`
}

// LoadConfig reads configuration from the given file plus ARGUS_*
// environment variables. An empty path searches the working directory
// for an argus.yaml and treats its absence as "environment only".
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("argus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables bind only to keys viper already knows about.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.burst", 4)

	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("search.serpapi_key", "")
	v.SetDefault("search.cache_ttl", 15*time.Minute)
	v.SetDefault("search.arxiv_base_url", "")
	v.SetDefault("search.tavily_base_url", "")

	v.SetDefault("review.num_reviewers", 3)
	v.SetDefault("review.num_sub_queries", 3)
	v.SetDefault("review.passage_words", 150)
	v.SetDefault("review.top_passages", 3)
}

// Validate checks the configuration's structural constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// defaultModels picks a sensible model when configuration names only a
// provider.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-sonnet-latest",
	"google":    "gemini-2.0-flash",
}

// requiredTemplates lists every prompt the workflows render. A store
// missing any of them fails construction rather than a run.
var requiredTemplates = []struct{ workflow, stage string }{
	{factcheck.WorkflowName, "generate_query"},
	{factcheck.WorkflowName, "score_claim"},
	{review.WorkflowName, "generate_reviewer"},
	{review.WorkflowName, "generate_questions"},
	{review.WorkflowName, "generate_sub_queries"},
	{review.WorkflowName, "answer_sub_query"},
	{review.WorkflowName, "compile_answer"},
	{review.WorkflowName, "review_and_suggest"},
	{review.WorkflowName, "summary"},
}

// BuildEvaluator wires the full engine from configuration: the
// completion client with its middleware chain, the evidence sources,
// the prompt store, retrieval, metrics, and both workflows.
func BuildEvaluator(cfg *Config, reg prometheus.Registerer, logger *slog.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := prompts.NewStore()
	if err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}
	for _, tmpl := range requiredTemplates {
		if _, err := store.Render(tmpl.workflow, tmpl.stage, nil); err != nil {
			return nil, fmt.Errorf("prompt %s/%s: %w", tmpl.workflow, tmpl.stage, err)
		}
	}

	collector := metrics.NewPrometheusMetrics(reg)

	model := cfg.LLM.Model
	if model == "" {
		model = defaultModels[cfg.LLM.Provider]
	}

	client, err := llm.NewClient(cfg.LLM.Provider, llm.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
		Middleware: []llm.Middleware{
			llm.RetryMiddleware(cfg.LLM.RetryDelay),
			llm.RateLimitMiddleware(rate.Limit(cfg.LLM.RequestsPerSecond), cfg.LLM.Burst),
			llm.MetricsMiddleware(collector),
			llm.TracingMiddleware("argus"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build completion client: %w", err)
	}

	web, academic := buildSearchProviders(cfg.Search)

	extractor := document.NewFileExtractor()
	retriever := document.NewLexicalRetriever(extractor, cfg.Review.PassageWords, cfg.Review.TopPassages)

	factWorkflow := factcheck.New(factcheck.Config{
		LLM:      client,
		Web:      web,
		Academic: academic,
		Prompts:  store,
		Metrics:  collector,
		Logger:   logger,
	})
	reviewWorkflow := review.New(review.Config{
		LLM:       client,
		Retriever: retriever,
		Prompts:   store,
		Metrics:   collector,
		Logger:    logger,
	})

	return NewEvaluator(EvaluatorConfig{
		Extractor:     extractor,
		Factcheck:     factWorkflow,
		Review:        reviewWorkflow,
		NumReviewers:  cfg.Review.NumReviewers,
		NumSubQueries: cfg.Review.NumSubQueries,
		Metrics:       collector,
		Logger:        logger,
	}), nil
}

// buildSearchProviders assembles the web and academic evidence sources,
// each behind a shared TTL cache so repeated queries within one
// evaluation run cost a single upstream call.
func buildSearchProviders(cfg SearchConfig) (ports.SearchProvider, []ports.SearchProvider) {
	var tavilyOpts []search.TavilyOption
	if cfg.TavilyBaseURL != "" {
		tavilyOpts = append(tavilyOpts, search.WithTavilyBaseURL(cfg.TavilyBaseURL))
	}
	web := cached(search.NewTavilyProvider(cfg.TavilyAPIKey, tavilyOpts...), cfg.CacheTTL)

	var arxivOpts []search.ArxivOption
	if cfg.ArxivBaseURL != "" {
		arxivOpts = append(arxivOpts, search.WithArxivBaseURL(cfg.ArxivBaseURL))
	}
	academic := []ports.SearchProvider{cached(search.NewArxivProvider(arxivOpts...), cfg.CacheTTL)}
	if cfg.SerpAPIKey != "" {
		academic = append(academic, cached(search.NewScholarProvider(cfg.SerpAPIKey), cfg.CacheTTL))
	}
	return web, academic
}

func cached(p ports.SearchProvider, ttl time.Duration) ports.SearchProvider {
	if ttl <= 0 {
		return p
	}
	return search.NewCachedProvider(p, ttl)
}
