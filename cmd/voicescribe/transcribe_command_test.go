package main

import (
	"path/filepath"
	"strings"
	"testing"

	"voicescribe/internal/history"
	"voicescribe/internal/testsupport"
)

const enginePayload = `{"text": "  你好，世界 <ok> ", "language": "zh", "segments": [{"start": 0, "end": 3.5, "text": "你好"}]}`

func TestTranscribeSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(testsupport.EngineWritesJSON(enginePayload)),
		testsupport.WithProbeOutput("5.216", 0),
	)
	env := setupCLITestEnv(t, cfg)
	audio := testsupport.WriteAudio(t, env.baseDir, "note.m4a")

	out, _, err := runCLI(t, []string{"transcribe", audio}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Fatalf("expected a single line of output, got %q", out)
	}
	requireContains(t, out, "<ok>")
	payload := decodeOutput(t, out)
	if payload["text"] != "你好，世界 <ok>" {
		t.Fatalf("unexpected text %q", payload["text"])
	}
	if payload["lang"] != "zh" {
		t.Fatalf("unexpected lang %v", payload["lang"])
	}
	if payload["seconds"] != 5.22 {
		t.Fatalf("unexpected seconds %v", payload["seconds"])
	}
	if _, ok := payload["error"]; ok {
		t.Fatal("success must not carry an error key")
	}
}

func TestTranscribePositionalModel(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(`printf '{"text": "%s"}' "$MODEL" > "$OUT_DIR/$STEM.json"`),
		testsupport.WithProbeOutput("", 1),
	)
	env := setupCLITestEnv(t, cfg)
	audio := testsupport.WriteAudio(t, env.baseDir, "note.wav")

	out, _, err := runCLI(t, []string{"transcribe", "--model", "tiny", audio, "small"}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	payload := decodeOutput(t, out)
	if payload["text"] != "small" {
		t.Fatalf("positional model should win, engine saw %v", payload["text"])
	}
	if payload["seconds"] != nil {
		t.Fatalf("expected unknown seconds, got %v", payload["seconds"])
	}
}

func TestTranscribeMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(`touch "$OUT_DIR/../engine-ran"; exit 0`),
	)
	env := setupCLITestEnv(t, cfg)
	missing := filepath.Join(env.baseDir, "missing.wav")

	out, _, err := runCLI(t, []string{"transcribe", missing}, env.configPath)
	if code := exitCodeOf(err); code != 1 {
		t.Fatalf("expected exit 1, got %d (%v)", code, err)
	}
	payload := decodeOutput(t, out)
	reason, _ := payload["error"].(string)
	if !strings.HasPrefix(reason, "input not found") {
		t.Fatalf("unexpected error %q", reason)
	}
	for _, key := range []string{"text", "lang", "seconds"} {
		value, ok := payload[key]
		if !ok || value != nil {
			t.Fatalf("expected %s to be null, got %v (present=%v)", key, value, ok)
		}
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(testsupport.EngineFails("CUDA out of memory", 2)),
		testsupport.WithProbeOutput("12.5", 0),
	)
	env := setupCLITestEnv(t, cfg)
	audio := testsupport.WriteAudio(t, env.baseDir, "note.wav")

	out, _, err := runCLI(t, []string{"transcribe", audio}, env.configPath)
	if code := exitCodeOf(err); code != 1 {
		t.Fatalf("expected exit 1, got %d (%v)", code, err)
	}
	payload := decodeOutput(t, out)
	if payload["error"] != "engine execution failed: CUDA out of memory" {
		t.Fatalf("unexpected error %v", payload["error"])
	}
	if payload["seconds"] != 12.5 {
		t.Fatalf("failure should carry probed seconds, got %v", payload["seconds"])
	}
}

func TestTranscribeUsageError(t *testing.T) {
	for _, args := range [][]string{
		{"transcribe"},
		{"transcribe", "a.wav", "base", "extra"},
	} {
		out, _, err := runCLI(t, args, "")
		if code := exitCodeOf(err); code != 1 {
			t.Fatalf("%v: expected exit 1, got %d (%v)", args, code, err)
		}
		payload := decodeOutput(t, out)
		if payload["error"] != transcribeUsage {
			t.Fatalf("%v: unexpected error %v", args, payload["error"])
		}
		if payload["text"] != nil || payload["seconds"] != nil {
			t.Fatalf("%v: usage failure must have null fields: %v", args, payload)
		}
	}
}

func TestTranscribeEmptyText(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(testsupport.EngineWritesJSON(`{"text": "   "}`)),
		testsupport.WithProbeOutput("", 1),
	)
	env := setupCLITestEnv(t, cfg)
	audio := testsupport.WriteAudio(t, env.baseDir, "silence.wav")

	out, _, err := runCLI(t, []string{"transcribe", audio}, env.configPath)
	if err != nil {
		t.Fatalf("empty transcript should exit 0 by default: %v", err)
	}
	if payload := decodeOutput(t, out); payload["text"] != "" {
		t.Fatalf("expected empty text, got %v", payload["text"])
	}

	cfg.Transcription.FailOnEmptyText = true
	writeTestConfig(t, env.configPath, cfg)
	out, _, err = runCLI(t, []string{"transcribe", audio}, env.configPath)
	if code := exitCodeOf(err); code != 1 {
		t.Fatalf("strict mode should exit 1, got %d (%v)", code, err)
	}
	if payload := decodeOutput(t, out); payload["text"] != "" {
		t.Fatalf("strict mode still prints the success object, got %v", payload)
	}
}

func TestTranscribeRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithEngineScript(testsupport.EngineWritesJSON(`{"text": "hello", "language": "en"}`)),
		testsupport.WithProbeOutput("2", 0),
		testsupport.WithHistory(),
	)
	env := setupCLITestEnv(t, cfg)
	audio := testsupport.WriteAudio(t, env.baseDir, "hello.wav")

	if _, _, err := runCLI(t, []string{"transcribe", audio}, env.configPath); err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "hello")
	requireContains(t, out, history.SourceCLI)

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	entries, err := store.List(t.Context(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].AudioPath != audio {
		t.Fatalf("unexpected audio path %q", entries[0].AudioPath)
	}

	out, _, err = runCLI(t, []string{"history", "show", entries[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, `"text":"hello"`)
}
