package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "ARXIV_DIGEST_CONFIG"
	zoteroIDEnv        = "ZOTERO_ID"
	zoteroKeyEnv       = "ZOTERO_KEY"
	zoteroTypeEnv      = "ZOTERO_LIBRARY_TYPE"
	llmAPIKeyEnv       = "LLM_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	llmModelEnv        = "LLM_MODEL"
	llmBaseURLEnv      = "LLM_BASE_URL"
	embeddingAPIKeyEnv = "EMBEDDING_API_KEY"
	wechatWebhookEnv   = "WECHAT_WEBHOOK"
	feishuWebhookEnv   = "FEISHU_WEBHOOK"
	larkWebhookEnv     = "LARK_WEBHOOK"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Library   LibraryConfig   `yaml:"library"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LibraryConfig describes the Zotero profile backend.
type LibraryConfig struct {
	APIURL      string   `yaml:"apiUrl"`
	LibraryID   string   `yaml:"libraryId"`
	APIKey      string   `yaml:"apiKey"`
	LibraryType string   `yaml:"libraryType"`
	ItemTypes   []string `yaml:"itemTypes"`
	MaxItems    int      `yaml:"maxItems"`
}

// ArxivConfig defines what to fetch and how patiently.
type ArxivConfig struct {
	// Query is either a category list ("cs.AI+cs.CL+cs.LG") or a raw
	// arXiv API search_query.
	Query      string  `yaml:"query"`
	Source     string  `yaml:"source"` // rss | api | listing
	MaxResults int     `yaml:"maxResults"`
	DaysBack   float64 `yaml:"daysBack"` // fractional days supported
	// OnlyNew is a pointer so a file can switch the default off; nil
	// means unset.
	OnlyNew *bool `yaml:"onlyNew"`
	// Feed strategy only: total wait budget and retry interval, in
	// minutes, for a feed not yet populated for the day.
	RSSWaitMinutes  int `yaml:"rssWaitMinutes"`
	RSSRetryMinutes int `yaml:"rssRetryMinutes"`
	// Listing strategy only: category pages to crawl.
	Listing []CategoryConfig `yaml:"listing"`
}

// CategoryConfig holds one concrete listing endpoint to crawl.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// RankingConfig bounds the similarity rerank.
type RankingConfig struct {
	MaxResults int `yaml:"maxResults"`
	MaxCorpus  int `yaml:"maxCorpus"`
	// StarThresholds maps similarity to stars: scores at or above
	// StarThresholds[i] earn len(StarThresholds)+1-i stars, the floor
	// is one star. Must be strictly descending.
	StarThresholds []float64 `yaml:"starThresholds"`
}

// EmbeddingConfig points at an OpenAI-compatible embeddings endpoint.
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
}

// LLMConfig defines the chat-completions backend and what the
// augmenter asks of it.
type LLMConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	// The toggles are pointers so a file can switch a default off;
	// nil means unset.
	IncludeTLDR       *bool  `yaml:"includeTldr"`
	TLDRLanguage      string `yaml:"tldrLanguage"`
	TLDRMaxWords      int    `yaml:"tldrMaxWords"`
	TranslateAbstract *bool  `yaml:"translateAbstract"`
}

// Enabled reports whether an optional toggle resolved to true.
func Enabled(flag *bool) bool {
	return flag != nil && *flag
}

func boolPtr(v bool) *bool { return &v }

// NotifyConfig encapsulates outbound channels. WeChat takes priority
// over Feishu when both carry a webhook URL.
type NotifyConfig struct {
	Title  string       `yaml:"title"`
	WeChat WeChatConfig `yaml:"wechat"`
	Feishu FeishuConfig `yaml:"feishu"`
}

// WeChatConfig wires the WeChat Work group-robot webhook.
type WeChatConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
	// ChunkLimit is the soft per-message character ceiling; the
	// channel hard limit is 4096.
	ChunkLimit int `yaml:"chunkLimit"`
}

// FeishuConfig wires the Feishu custom-bot webhook.
type FeishuConfig struct {
	WebhookURL     string `yaml:"webhookUrl"`
	HeaderTemplate string `yaml:"headerTemplate"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(zoteroIDEnv); v != "" {
		c.Library.LibraryID = v
	}
	if v := os.Getenv(zoteroKeyEnv); v != "" {
		c.Library.APIKey = v
	}
	if v := os.Getenv(zoteroTypeEnv); v != "" {
		c.Library.LibraryType = v
	}

	if v := firstEnv(llmAPIKeyEnv, openAIAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(llmBaseURLEnv); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(embeddingAPIKeyEnv); v != "" {
		c.Embedding.APIKey = v
	}

	if v := os.Getenv(wechatWebhookEnv); v != "" {
		c.Notify.WeChat.WebhookURL = v
	}
	if v := firstEnv(feishuWebhookEnv, larkWebhookEnv); v != "" {
		c.Notify.Feishu.WebhookURL = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Library.APIURL != "" {
		base.Library.APIURL = override.Library.APIURL
	}
	if override.Library.LibraryID != "" {
		base.Library.LibraryID = override.Library.LibraryID
	}
	if override.Library.APIKey != "" {
		base.Library.APIKey = override.Library.APIKey
	}
	if override.Library.LibraryType != "" {
		base.Library.LibraryType = override.Library.LibraryType
	}
	if len(override.Library.ItemTypes) > 0 {
		base.Library.ItemTypes = override.Library.ItemTypes
	}
	if override.Library.MaxItems > 0 {
		base.Library.MaxItems = override.Library.MaxItems
	}

	if override.Arxiv.Query != "" {
		base.Arxiv.Query = override.Arxiv.Query
	}
	if override.Arxiv.Source != "" {
		base.Arxiv.Source = override.Arxiv.Source
	}
	if override.Arxiv.MaxResults > 0 {
		base.Arxiv.MaxResults = override.Arxiv.MaxResults
	}
	if override.Arxiv.DaysBack > 0 {
		base.Arxiv.DaysBack = override.Arxiv.DaysBack
	}
	if override.Arxiv.OnlyNew != nil {
		base.Arxiv.OnlyNew = override.Arxiv.OnlyNew
	}
	if override.Arxiv.RSSWaitMinutes > 0 {
		base.Arxiv.RSSWaitMinutes = override.Arxiv.RSSWaitMinutes
	}
	if override.Arxiv.RSSRetryMinutes > 0 {
		base.Arxiv.RSSRetryMinutes = override.Arxiv.RSSRetryMinutes
	}
	if len(override.Arxiv.Listing) > 0 {
		base.Arxiv.Listing = override.Arxiv.Listing
	}

	if override.Ranking.MaxResults > 0 {
		base.Ranking.MaxResults = override.Ranking.MaxResults
	}
	if override.Ranking.MaxCorpus > 0 {
		base.Ranking.MaxCorpus = override.Ranking.MaxCorpus
	}
	if len(override.Ranking.StarThresholds) > 0 {
		base.Ranking.StarThresholds = override.Ranking.StarThresholds
	}

	if override.Embedding.Endpoint != "" {
		base.Embedding.Endpoint = override.Embedding.Endpoint
	}
	if override.Embedding.APIKey != "" {
		base.Embedding.APIKey = override.Embedding.APIKey
	}
	if override.Embedding.Model != "" {
		base.Embedding.Model = override.Embedding.Model
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.IncludeTLDR != nil {
		base.LLM.IncludeTLDR = override.LLM.IncludeTLDR
	}
	if override.LLM.TLDRLanguage != "" {
		base.LLM.TLDRLanguage = override.LLM.TLDRLanguage
	}
	if override.LLM.TLDRMaxWords > 0 {
		base.LLM.TLDRMaxWords = override.LLM.TLDRMaxWords
	}
	if override.LLM.TranslateAbstract != nil {
		base.LLM.TranslateAbstract = override.LLM.TranslateAbstract
	}

	if override.Notify.Title != "" {
		base.Notify.Title = override.Notify.Title
	}
	if override.Notify.WeChat.WebhookURL != "" {
		base.Notify.WeChat.WebhookURL = override.Notify.WeChat.WebhookURL
	}
	if override.Notify.WeChat.ChunkLimit > 0 {
		base.Notify.WeChat.ChunkLimit = override.Notify.WeChat.ChunkLimit
	}
	if override.Notify.Feishu.WebhookURL != "" {
		base.Notify.Feishu.WebhookURL = override.Notify.Feishu.WebhookURL
	}
	if override.Notify.Feishu.HeaderTemplate != "" {
		base.Notify.Feishu.HeaderTemplate = override.Notify.Feishu.HeaderTemplate
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Library: LibraryConfig{
			APIURL:      "https://api.zotero.org",
			LibraryType: "user",
			ItemTypes:   []string{"conferencePaper", "journalArticle", "preprint"},
		},
		Arxiv: ArxivConfig{
			Query:           "cs.AI+cs.CL+cs.LG",
			Source:          "rss",
			MaxResults:      30,
			DaysBack:        1,
			OnlyNew:         boolPtr(true),
			RSSWaitMinutes:  120,
			RSSRetryMinutes: 20,
		},
		Ranking: RankingConfig{
			MaxResults:     5,
			MaxCorpus:      400,
			StarThresholds: []float64{0.8, 0.65, 0.5, 0.35},
		},
		Embedding: EmbeddingConfig{
			Endpoint: "https://api.openai.com/v1/embeddings",
			Model:    "text-embedding-3-small",
		},
		LLM: LLMConfig{
			Endpoint:          "https://api.openai.com/v1/chat/completions",
			Model:             "gpt-4o-mini",
			Temperature:       0,
			IncludeTLDR:       boolPtr(true),
			TLDRLanguage:      "Chinese",
			TLDRMaxWords:      80,
			TranslateAbstract: boolPtr(true),
		},
		Notify: NotifyConfig{
			Title: "ArXiv Digest",
			WeChat: WeChatConfig{
				ChunkLimit: 1000,
			},
			Feishu: FeishuConfig{
				HeaderTemplate: "turquoise",
			},
		},
	}
}
