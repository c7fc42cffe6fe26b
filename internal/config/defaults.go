package config

const (
	defaultOutputDir          = "output"
	defaultLogDir             = "~/.local/share/channelgrab/logs"
	historyFileName           = "history.db"
	defaultCatalogBaseURL     = "https://api.tikhub.io"
	defaultCatalogTimeout     = 30
	defaultKeystreamBaseURL   = "http://localhost:3005"
	defaultKeystreamTimeout   = 30
	defaultDownloadHeaderWait = 60
	defaultTargetMB           = 50.0
	defaultAudioKbps          = 96
	defaultPreset             = "medium"
	defaultRetries            = 2
	defaultSafety             = 0.96
	defaultSafetyDecay        = 0.9
	defaultMinVideoKbps       = 200
	defaultMaxrateHeadroom    = 1.07
	defaultVideoCodec         = "libx264"
	defaultAudioCodec         = "aac"
	defaultExtractAudioCodec  = "aac"
	defaultExtractAudioKbps   = 128
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Environment variables consulted when the config file leaves a value unset.
const (
	EnvAPIKey       = "TIKHUB_API_KEY"
	EnvKeystreamURL = "CHANNELGRAB_DECRYPT_API"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			TimeoutSeconds: defaultCatalogTimeout,
		},
		Keystream: Keystream{
			BaseURL:        defaultKeystreamBaseURL,
			TimeoutSeconds: defaultKeystreamTimeout,
		},
		Download: Download{
			HeaderTimeoutSeconds: defaultDownloadHeaderWait,
			Progress:             true,
		},
		Compress: Compress{
			TargetMB:        defaultTargetMB,
			AudioKbps:       defaultAudioKbps,
			Preset:          defaultPreset,
			Retries:         defaultRetries,
			Safety:          defaultSafety,
			SafetyDecay:     defaultSafetyDecay,
			MinVideoKbps:    defaultMinVideoKbps,
			MaxrateHeadroom: defaultMaxrateHeadroom,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
		},
		Audio: Audio{
			Codec:       defaultExtractAudioCodec,
			BitrateKbps: defaultExtractAudioKbps,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
