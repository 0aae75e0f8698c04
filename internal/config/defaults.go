package config

const (
	defaultDataDir        = "~/.local/share/loom"
	defaultLogDir         = "~/.local/share/loom/logs"
	defaultLookbackHours  = 24
	defaultDiscordTimeout = 60
	defaultWhisperBinary  = "whisper"
	defaultWhisperModel   = "base"
	defaultLLMBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel       = "google/gemini-3-flash-preview"
	defaultLLMReferer     = "https://github.com/loom-audio/loom"
	defaultLLMTitle       = "Loom Podcast Pipeline"
	defaultLLMTimeout     = 60
	defaultTTSBaseURL     = "https://api.elevenlabs.io/v1"
	defaultTTSModelID     = "eleven_monolingual_v1"
	defaultTTSTimeout     = 60
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultSampleRate     = 44100
	defaultChannels       = 2
	defaultPauseMs        = 500
	defaultBitrate        = "192k"
	defaultOutputFile     = "podcast.mp3"
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// defaultScriptPrompt instructs the model to produce the script JSON shape
// the parser accepts: an array of speech and snippet-reference entries.
const defaultScriptPrompt = `You are writing a short, funny podcast episode from friends' voice message transcripts.
You receive a JSON object with "transcripts" (speaker name to full transcript) and "snippets" (paths to pre-cut audio clips).
Return ONLY a JSON array of entries played in order. Each entry is either
{"speaker": "<name>", "text": "<line to synthesize>"} or {"snippet": "<path from the snippets list>"}.
Write natural host-style banter between snippet references, attribute lines to the speakers given, and use every snippet at most once.`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Discord: Discord{
			LookbackHours:  defaultLookbackHours,
			TimeoutSeconds: defaultDiscordTimeout,
		},
		Whisper: Whisper{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			ModelID:        defaultTTSModelID,
			TimeoutSeconds: defaultTTSTimeout,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			SampleRate:    defaultSampleRate,
			Channels:      defaultChannels,
		},
		Podcast: Podcast{
			PauseMs:      defaultPauseMs,
			Bitrate:      defaultBitrate,
			OutputFile:   defaultOutputFile,
			ScriptPrompt: defaultScriptPrompt,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
