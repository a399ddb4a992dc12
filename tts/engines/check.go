package engines

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/learnlink/learnlink/internal/subprocess"
	"github.com/learnlink/learnlink/tts"
	"github.com/learnlink/learnlink/tts/audio"
	"github.com/learnlink/learnlink/tts/engines/voicevox"
)

// espeakSampleRate is the only rate eSpeak NG renders at.
const espeakSampleRate = 22050

// CheckResult describes whether an engine is ready to speak.
type CheckResult struct {
	Engine    string
	Available bool
	// Err is the first problem found. Nil when Available.
	Err error
	// Guidance is a setup hint for Err.
	Guidance string
	// Details holds what the check found along the way (paths, versions).
	Details map[string]string
}

// Check inspects the installation and configuration of the named engine
// without synthesizing anything. It never returns nil.
func Check(ctx context.Context, config tts.Config, name string) *CheckResult {
	result := &CheckResult{
		Engine:  name,
		Details: make(map[string]string),
	}

	switch name {
	case tts.EngineMock:
		result.Details["engine"] = "Mock (silent)"
		result.Details["words_per_minute"] = fmt.Sprint(config.Mock.WordsPerMinute)
		result.Available = true
	case tts.EnginePiper:
		checkPiper(config.Piper, result)
	case tts.EngineEspeak:
		checkEspeak(config, result)
	case tts.EngineVoicevox:
		checkVoicevox(ctx, config, result)
	default:
		result.Err = fmt.Errorf("%w: %q", tts.ErrUnknownEngine, name)
		result.Guidance = "Supported engines: " + strings.Join(tts.Engines, ", ")
	}
	return result
}

// CheckAll checks the primary engine and, when set, the fallback.
func CheckAll(ctx context.Context, config tts.Config) []*CheckResult {
	results := []*CheckResult{Check(ctx, config, config.Engine)}
	if config.Fallback != "" && config.Fallback != config.Engine {
		results = append(results, Check(ctx, config, config.Fallback))
	}
	return results
}

// Guidance returns the setup hint for the named engine, or "" when the
// engine looks ready.
func Guidance(ctx context.Context, config tts.Config, name string) string {
	r := Check(ctx, config, name)
	if r.Available {
		return ""
	}
	return r.Guidance
}

func checkPiper(config tts.PiperConfig, result *CheckResult) {
	result.Details["engine"] = "Piper (offline neural TTS)"

	binary, err := subprocess.Find(append([]string{config.Binary}, subprocess.UserBinCandidates("piper")...)...)
	if err != nil {
		result.Err = err
		result.Guidance = piperInstallGuidance
		return
	}
	result.Details["binary"] = binary

	if config.Model == "" {
		result.Err = fmt.Errorf("piper model not configured")
		result.Guidance = piperModelGuidance
		return
	}
	result.Details["model"] = config.Model

	if _, err := os.Stat(config.Model); err != nil {
		result.Err = fmt.Errorf("model file not accessible: %w", err)
		result.Guidance = piperModelGuidance
		return
	}

	// The voice config sits next to the model and is optional.
	if _, err := os.Stat(config.Model + ".json"); err == nil {
		result.Details["model_config"] = config.Model + ".json"
	} else {
		result.Details["model_config"] = "not found (using model defaults)"
	}
	if config.Speaker > 0 {
		result.Details["speaker"] = fmt.Sprint(config.Speaker)
	}

	result.Available = true
}

func checkEspeak(config tts.Config, result *CheckResult) {
	result.Details["engine"] = "eSpeak NG (offline formant TTS)"

	binary, err := subprocess.Find(config.Espeak.Binary, "espeak-ng", "espeak")
	if err != nil {
		result.Err = err
		result.Guidance = espeakInstallGuidance
		return
	}
	result.Details["binary"] = binary
	if config.Espeak.Voice != "" {
		result.Details["voice"] = config.Espeak.Voice
	}

	if config.SampleRate != espeakSampleRate {
		result.Err = fmt.Errorf("%w: espeak renders at %d Hz, sample_rate is %d",
			tts.ErrInvalidConfig, espeakSampleRate, config.SampleRate)
		result.Guidance = fmt.Sprintf("Set speech.sample_rate to %d when using eSpeak NG.", espeakSampleRate)
		return
	}

	result.Available = true
}

func checkVoicevox(ctx context.Context, config tts.Config, result *CheckResult) {
	result.Details["engine"] = "VOICEVOX (HTTP)"
	result.Details["url"] = config.Voicevox.URL
	result.Details["speaker"] = fmt.Sprint(config.Voicevox.Speaker)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	format := audio.Format{SampleRate: config.SampleRate, Channels: audio.Channels}
	version, err := voicevox.New(config.Voicevox, format).Version(ctx)
	if err != nil {
		result.Err = err
		result.Guidance = voicevoxGuidance
		return
	}
	result.Details["version"] = version

	result.Available = true
}

const piperInstallGuidance = `Piper is not installed. To install:

1. Download a release from https://github.com/rhasspy/piper/releases
2. Extract it and put the piper binary on your PATH, or in ~/.local/bin:

   tar -xzf piper_linux_x86_64.tar.gz
   cp piper/piper ~/.local/bin/

3. Or point speech.piper.binary at it in the LearnLink config file.`

const piperModelGuidance = `Piper needs a voice model. To download one:

   mkdir -p ~/.local/share/piper
   cd ~/.local/share/piper
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/lessac/medium/en_US-lessac-medium.onnx
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/lessac/medium/en_US-lessac-medium.onnx.json

Then set speech.piper.model in the LearnLink config file (learnlink config).`

const espeakInstallGuidance = `eSpeak NG is not installed. To install:

   # Ubuntu/Debian
   sudo apt install espeak-ng

   # Fedora
   sudo dnf install espeak-ng

   # macOS (Homebrew)
   brew install espeak-ng

Or point speech.espeak.binary at it in the LearnLink config file.`

const voicevoxGuidance = `The VOICEVOX engine did not answer. Please check:

1. The engine is running, for example:
   docker run --rm -p 50021:50021 voicevox/voicevox_engine:cpu-latest
2. speech.voicevox.url in the LearnLink config file points at it`
