package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/discord"
	"loom/internal/ingest"
	"loom/internal/logging"
	"loom/internal/media"
	"loom/internal/moments"
	"loom/internal/notifications"
	"loom/internal/pipeline"
	"loom/internal/queue"
	"loom/internal/services/elevenlabs"
	"loom/internal/services/llm"
	"loom/internal/services/whisper"
	"loom/internal/snippets"
	"loom/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = resolved
		c.configExists = exists
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stderr",
				filepath.Join(cfg.Paths.LogDir, "loom.log"),
			},
		})
	})
	return c.logger, c.loggerErr
}

// withStore opens the queue database for the duration of fn.
func (c *commandContext) withStore(fn func(cfg *config.Config, store *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg.QueuePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) codec(cfg *config.Config) *media.Codec {
	return media.NewCodec(cfg.Media.FFmpegBinary, cfg.Media.SampleRate, cfg.Media.Channels)
}

func (c *commandContext) discordClient(cfg *config.Config) *discord.Client {
	return discord.NewClient(discord.Config{
		BotToken:       cfg.Discord.BotToken,
		ChannelID:      cfg.Discord.ChannelID,
		SendChannelID:  cfg.Discord.SendChannelID,
		BaseURL:        cfg.Discord.BaseURL,
		TimeoutSeconds: cfg.Discord.TimeoutSeconds,
	})
}

func (c *commandContext) llmClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}

func (c *commandContext) ttsClient(cfg *config.Config) *elevenlabs.Client {
	return elevenlabs.NewClient(elevenlabs.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		ModelID:        cfg.TTS.ModelID,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
}

func (c *commandContext) notifier(cfg *config.Config) notifications.Service {
	return notifications.NewService(notifications.Config{
		Topic:          cfg.Notifications.NtfyTopic,
		TimeoutSeconds: cfg.Notifications.RequestTimeout,
	})
}

func (c *commandContext) combiner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *ingest.Combiner {
	return ingest.NewCombiner(c.codec(cfg), store, logger)
}

// newRunner wires the three stage handlers over the shared store.
func (c *commandContext) newRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *workflow.Runner {
	codec := c.codec(cfg)
	transcriber := whisper.NewService(whisper.Config{
		Binary:   cfg.Whisper.Binary,
		Model:    cfg.Whisper.Model,
		Language: cfg.Whisper.Language,
	})
	selector := moments.NewSelector(c.llmClient(cfg), logger)
	materializer := snippets.NewMaterializer(codec, cfg.Podcast.Bitrate, logger)

	return workflow.NewRunner(store,
		pipeline.NewTranscribeStage(transcriber, cfg.Whisper.Binary, logger),
		pipeline.NewSelectStage(selector, logger),
		pipeline.NewExtractStage(materializer, cfg.SnippetDir(), cfg.Media.FFmpegBinary, logger),
		logger,
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
