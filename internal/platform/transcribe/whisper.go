package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// StageError is a stage-aware failure with the command that produced it.
type StageError struct {
	Stage   string
	Message string
	Command CommandLog
	Err     error
}

func (e *StageError) Error() string {
	if e.Command.Name == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Stage, e.Message, e.Command.Name, e.Command.ExitCode)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CommandLog captures one external command invocation.
type CommandLog struct {
	Name     string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandLog, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (CommandLog, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log := CommandLog{Name: name, Args: args, Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		log.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.ExitCode = exitErr.ExitCode()
		}
	}
	return log, err
}

// WhisperCLI converts the upload to 16 kHz mono WAV with ffmpeg and runs
// whisper.cpp on it, reading back the .txt transcript.
type WhisperCLI struct {
	ffmpegPath  string
	whisperPath string
	modelPath   string
	language    string
	runner      commandRunner
}

func NewWhisperCLI(ffmpegPath, whisperPath, modelPath, language string) *WhisperCLI {
	return &WhisperCLI{
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		modelPath:   modelPath,
		language:    language,
		runner:      execRunner{},
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &StageError{Stage: "preprocessing", Message: "audio is empty"}
	}

	workDir, err := os.MkdirTemp("", "voice-motto-*")
	if err != nil {
		return "", &StageError{Stage: "preprocessing", Message: "failed to create temporary workspace", Err: err}
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input")
	if err := os.WriteFile(inputPath, audio, 0o600); err != nil {
		return "", &StageError{Stage: "preprocessing", Message: "failed to stage audio", Err: err}
	}

	wavPath := filepath.Join(workDir, "preprocessed-16k-mono.wav")
	ffmpegLog, err := w.runner.Run(ctx, w.ffmpegPath, buildFFmpegArgs(inputPath, wavPath)...)
	if err != nil {
		return "", &StageError{Stage: "preprocessing", Message: "ffmpeg audio conversion failed", Command: ffmpegLog, Err: err}
	}

	textBase := filepath.Join(workDir, "transcript")
	whisperLog, err := w.runner.Run(ctx, w.whisperPath, buildWhisperArgs(w.modelPath, wavPath, textBase, w.language)...)
	if err != nil {
		return "", &StageError{Stage: "transcribing", Message: "whisper.cpp transcription failed", Command: whisperLog, Err: err}
	}

	content, err := os.ReadFile(textBase + ".txt")
	if err != nil {
		return "", &StageError{Stage: "exporting", Message: "whisper.cpp completed but transcript file is missing", Command: whisperLog, Err: err}
	}
	return strings.TrimSpace(string(content)), nil
}

// buildFFmpegArgs builds preprocessing args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

func buildWhisperArgs(modelPath, audioPath, textBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
		"-nt",
	}
	if lang := strings.TrimSpace(language); lang != "" && !strings.EqualFold(lang, "auto") {
		args = append(args, "-l", lang)
	}
	return args
}
