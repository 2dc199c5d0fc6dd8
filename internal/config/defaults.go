package config

const (
	defaultConfigPath         = "~/.config/voicescribe/config.toml"
	defaultEngineBinary       = "whisper"
	defaultEngineModel        = "base"
	defaultEngineTimeout      = 300
	defaultProbeBinary        = "ffprobe"
	defaultProbeTimeout       = 10
	maxProbeTimeout           = 10
	defaultLanguage           = "zh"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultHistoryPath        = "~/.local/share/voicescribe/history.db"
	defaultServerBind         = "127.0.0.1:8765"
	defaultServerMaxUploadMiB = 25
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			Binary:         defaultEngineBinary,
			Model:          defaultEngineModel,
			TimeoutSeconds: defaultEngineTimeout,
		},
		Probe: Probe{
			Binary:         defaultProbeBinary,
			TimeoutSeconds: defaultProbeTimeout,
		},
		Transcription: Transcription{
			Language: defaultLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Path: defaultHistoryPath,
		},
		Server: Server{
			Bind:         defaultServerBind,
			MaxUploadMiB: defaultServerMaxUploadMiB,
		},
	}
}
