package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credentials for individual
// backends are checked by the commands that need them, so a partially
// configured install can still run the stages it has keys for.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDiscord(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validatePodcast(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDiscord() error {
	if c.Discord.LookbackHours <= 0 {
		return errors.New("discord.lookback_hours must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.SampleRate <= 0 {
		return errors.New("media.sample_rate must be positive")
	}
	if c.Media.Channels != 1 && c.Media.Channels != 2 {
		return fmt.Errorf("media.channels must be 1 or 2, got %d", c.Media.Channels)
	}
	return nil
}

func (c *Config) validatePodcast() error {
	if c.Podcast.PauseMs < 0 {
		return errors.New("podcast.pause_ms must not be negative")
	}
	if c.Podcast.Bitrate == "" {
		return errors.New("podcast.bitrate must be set")
	}
	if len(c.Podcast.Voices) == 0 {
		return errors.New("podcast.voices must list at least one voice id")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
