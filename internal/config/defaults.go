package config

const (
	defaultStorageDir           = "~/.local/share/podforge/episodes"
	defaultMaterialsDir1        = "~/.local/share/podforge/materials/1"
	defaultMaterialsDir2        = "~/.local/share/podforge/materials/2"
	defaultLockFile             = "~/.local/share/podforge/podforged.lock"
	defaultBind                 = "127.0.0.1:8000"
	defaultBaseURL              = "http://localhost:8000"
	defaultScriptBaseURL        = "https://api.openai.com/v1"
	defaultScriptModel          = "gpt-4o-mini"
	defaultScriptTimeoutSeconds = 60
	defaultSpeechEngine         = "command"
	defaultSpeechCommand        = "espeak-ng"
	defaultSpeechVoice          = "en"
	defaultSpeechTimeoutSeconds = 300
	defaultCheckpointIntervalMS = 400
	defaultScriptCheckpoints    = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir:    defaultStorageDir,
			MaterialsDir1: defaultMaterialsDir1,
			MaterialsDir2: defaultMaterialsDir2,
			Bind:          defaultBind,
			BaseURL:       defaultBaseURL,
			LockFile:      defaultLockFile,
		},
		Script: Script{
			BaseURL:        defaultScriptBaseURL,
			Model:          defaultScriptModel,
			TimeoutSeconds: defaultScriptTimeoutSeconds,
		},
		Speech: Speech{
			Engine:         defaultSpeechEngine,
			Command:        defaultSpeechCommand,
			CommandArgs:    []string{"-w", "{output}", "-v", "{voice}", "{text}"},
			Voice:          defaultSpeechVoice,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Workflow: Workflow{
			CheckpointIntervalMS: defaultCheckpointIntervalMS,
			ScriptCheckpoints:    defaultScriptCheckpoints,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
