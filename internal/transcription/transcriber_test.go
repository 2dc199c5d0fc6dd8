package transcription

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voicescribe/internal/services"
	"voicescribe/internal/services/whisper"
	"voicescribe/internal/testsupport"
)

type fixture struct {
	transcriber *Transcriber
	workDir     string
	audioDir    string
}

func newFixture(t *testing.T, engineScript, probeOutput string, probeCode int) fixture {
	t.Helper()
	base := t.TempDir()
	bin := filepath.Join(base, "bin")
	opts := Options{
		EngineBinary: testsupport.WriteEngineStub(t, bin, engineScript),
		Model:        "base",
		Language:     "zh",
		Timeout:      10 * time.Second,
		ProbeBinary:  testsupport.WriteProbeStub(t, bin, probeOutput, probeCode),
		ProbeTimeout: 5 * time.Second,
		WorkDir:      filepath.Join(base, "work"),
	}
	return fixture{
		transcriber: New(opts),
		workDir:     opts.WorkDir,
		audioDir:    filepath.Join(base, "audio"),
	}
}

func (f fixture) audio(t *testing.T, name string) string {
	t.Helper()
	return testsupport.WriteAudio(t, f.audioDir, name)
}

func assertWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected transient directories to be removed, found %d entries", len(entries))
	}
}

func assertFailure(t *testing.T, res Result, kind services.FailureKind) {
	t.Helper()
	if res.Err == nil {
		t.Fatalf("expected %s failure, got success %+v", kind, res)
	}
	if res.Err.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, res.Err.Kind, res.Err.Reason)
	}
	if res.Text != nil {
		t.Fatal("failure must not carry text")
	}
	if ExitCode(res, false) != 1 {
		t.Fatal("failure must exit 1")
	}
}

func assertSeconds(t *testing.T, res Result, want float64) {
	t.Helper()
	if res.Seconds == nil {
		t.Fatalf("expected seconds %v, got nil", want)
	}
	if *res.Seconds != want {
		t.Fatalf("expected seconds %v, got %v", want, *res.Seconds)
	}
}

func TestMissingInputSpawnsNothing(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	f := newFixture(t, "touch "+marker, "4.0", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: filepath.Join(f.audioDir, "absent.ogg")})

	assertFailure(t, res, services.KindInputNotFound)
	if res.Seconds != nil {
		t.Fatalf("expected unknown duration, got %v", *res.Seconds)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("engine must not be spawned for missing input")
	}
}

func TestDirectoryInputIsNotFound(t *testing.T) {
	f := newFixture(t, "exit 0", "4.0", 0)
	dir := filepath.Join(f.audioDir, "folder.ogg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: dir})
	assertFailure(t, res, services.KindInputNotFound)
}

func TestEngineNonZeroExitKeepsProbedDuration(t *testing.T) {
	f := newFixture(t, testsupport.EngineFails("CUDA out of memory", 1), "4.567", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "a.ogg")})

	assertFailure(t, res, services.KindEngineExecutionFailed)
	assertSeconds(t, res, 4.567)
	if res.Err.Reason != "engine execution failed: CUDA out of memory" {
		t.Fatalf("unexpected reason %q", res.Err.Reason)
	}
	assertWorkDirEmpty(t, f.workDir)
}

func TestEngineNonZeroExitWithUnknownDuration(t *testing.T) {
	f := newFixture(t, testsupport.EngineFails("boom", 3), "N/A", 0)
	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "a.ogg")})
	assertFailure(t, res, services.KindEngineExecutionFailed)
	if res.Seconds != nil {
		t.Fatalf("expected null seconds, got %v", *res.Seconds)
	}
}

func TestEngineTimeout(t *testing.T) {
	f := newFixture(t, "exec sleep 30", "9.5", 0)

	start := time.Now()
	res := f.transcriber.Transcribe(context.Background(), Request{
		AudioPath: f.audio(t, "long.ogg"),
		Timeout:   300 * time.Millisecond,
	})

	assertFailure(t, res, services.KindEngineTimeout)
	assertSeconds(t, res, 9.5)
	if res.Err.Reason != "transcription timed out after 300ms" {
		t.Fatalf("unexpected reason %q", res.Err.Reason)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("timeout did not cut the run short")
	}
	assertWorkDirEmpty(t, f.workDir)
}

func TestProbedDurationWinsOverSegments(t *testing.T) {
	payload := `{"text":" 你好 ","language":"zh","segments":[{"start":0,"end":5.0},{"start":5.0,"end":11.9}]}`
	f := newFixture(t, testsupport.EngineWritesJSON(payload), "12.34", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "note.ogg")})

	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Err)
	}
	if *res.Text != "你好" || res.Language != "zh" {
		t.Fatalf("unexpected text/lang %q %q", *res.Text, res.Language)
	}
	assertSeconds(t, res, 12.34)
	assertWorkDirEmpty(t, f.workDir)
}

func TestSegmentDurationWhenProbeFails(t *testing.T) {
	payload := `{"text":"hello","language":"en","segments":[{"start":0,"end":3.5},{"start":3.5,"end":7.0}]}`
	f := newFixture(t, testsupport.EngineWritesJSON(payload), "", 1)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "note.ogg")})

	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Err)
	}
	assertSeconds(t, res, 7.0)
	if res.Language != "en" {
		t.Fatalf("expected engine language, got %q", res.Language)
	}
}

func TestEmptyTextIsSuccess(t *testing.T) {
	f := newFixture(t, testsupport.EngineWritesJSON(`{"text":"   ","segments":[]}`), "3.0", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "silence.ogg")})

	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Err)
	}
	if *res.Text != "" {
		t.Fatalf("expected empty text, got %q", *res.Text)
	}
	if res.Language != "zh" {
		t.Fatalf("expected fallback language zh, got %q", res.Language)
	}
	assertSeconds(t, res, 3.0)
	if ExitCode(res, false) != 0 {
		t.Fatal("empty transcript exits 0 by default")
	}
	if ExitCode(res, true) != 1 {
		t.Fatal("empty transcript exits 1 when strict")
	}
}

func TestUnknownDurationEverywhere(t *testing.T) {
	f := newFixture(t, testsupport.EngineWritesJSON(`{"text":"hi","segments":[{"start":0,"end":0}]}`), "0", 0)
	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "a.ogg")})
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Err)
	}
	if res.Seconds != nil {
		t.Fatalf("expected null seconds, got %v", *res.Seconds)
	}
}

func TestOutputFallbackToAnyJSON(t *testing.T) {
	f := newFixture(t, testsupport.EngineWritesFile("foo.json", `{"text":"fallback","language":"zh"}`), "2.0", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "bar.ogg")})

	if !res.Succeeded() || *res.Text != "fallback" {
		t.Fatalf("expected fallback output to be read, got %+v", res)
	}
}

func TestOutputMissing(t *testing.T) {
	f := newFixture(t, "exit 0", "2.25", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "bar.ogg")})

	assertFailure(t, res, services.KindOutputMissing)
	assertSeconds(t, res, 2.25)
	if res.Err.Reason != "engine produced no output" {
		t.Fatalf("unexpected reason %q", res.Err.Reason)
	}
	assertWorkDirEmpty(t, f.workDir)
}

func TestOutputParseError(t *testing.T) {
	f := newFixture(t, testsupport.EngineWritesJSON(`{"text": "unterminated`), "1.5", 0)

	res := f.transcriber.Transcribe(context.Background(), Request{AudioPath: f.audio(t, "bad.ogg")})

	assertFailure(t, res, services.KindOutputParseError)
	assertSeconds(t, res, 1.5)
	assertWorkDirEmpty(t, f.workDir)
}

func TestIdempotentSuccess(t *testing.T) {
	payload := `{"text":"同一句话","language":"zh","segments":[{"start":0,"end":2.0}]}`
	f := newFixture(t, testsupport.EngineWritesJSON(payload), "2.0", 0)
	audio := f.audio(t, "same.ogg")

	first := f.transcriber.Transcribe(context.Background(), Request{AudioPath: audio})
	second := f.transcriber.Transcribe(context.Background(), Request{AudioPath: audio})

	if !first.Succeeded() || !second.Succeeded() {
		t.Fatalf("expected both runs to succeed: %+v %+v", first.Err, second.Err)
	}
	if *first.Text != *second.Text || first.Language != second.Language {
		t.Fatalf("runs differ: %q/%q vs %q/%q", *first.Text, first.Language, *second.Text, second.Language)
	}
	if first.ID == second.ID {
		t.Fatal("each request gets its own id")
	}
}

func TestConcurrentRequestsDoNotShareState(t *testing.T) {
	f := newFixture(t, testsupport.EngineWritesJSON(`{"text":"$STEM"}`), "1.0", 0)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	names := []string{"one.ogg", "two.ogg", "three.ogg", "four.ogg"}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = f.audio(t, name)
	}
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.transcriber.Transcribe(context.Background(), Request{AudioPath: paths[i]})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if !res.Succeeded() {
			t.Fatalf("request %d failed: %+v", i, res.Err)
		}
		if *res.Text != "$STEM" {
			t.Fatalf("request %d: unexpected text %q", i, *res.Text)
		}
	}
	assertWorkDirEmpty(t, f.workDir)
}

type fakeProber struct {
	seconds float64
	ok      bool
}

func (p fakeProber) Duration(context.Context, string) (float64, bool) {
	return p.seconds, p.ok
}

type fakeEngine struct {
	files map[string]string
	err   error
	jobs  []whisper.Job
}

func (e *fakeEngine) Invoke(_ context.Context, job whisper.Job) (whisper.Invocation, error) {
	e.jobs = append(e.jobs, job)
	for name, body := range e.files {
		if err := os.WriteFile(filepath.Join(job.OutputDir, name), []byte(body), 0o644); err != nil {
			return whisper.Invocation{}, err
		}
	}
	return whisper.Invocation{OutputDir: job.OutputDir, Model: job.Model}, e.err
}

func TestRequestDefaultsFlowIntoJob(t *testing.T) {
	engine := &fakeEngine{files: map[string]string{"clip.json": `{"text":"x"}`}}
	tr := New(Options{Model: "small", Language: "zh", Timeout: time.Minute, WorkDir: t.TempDir()},
		WithEngine(engine), WithProber(fakeProber{seconds: 12.345678, ok: true}))
	audio := testsupport.WriteAudio(t, t.TempDir(), "clip.m4a")

	res := tr.Transcribe(context.Background(), Request{AudioPath: audio})
	if !res.Succeeded() {
		t.Fatalf("expected success, got %+v", res.Err)
	}
	assertSeconds(t, res, 12.35)
	if res.Model != "small" {
		t.Fatalf("expected result model small, got %q", res.Model)
	}
	job := engine.jobs[0]
	if job.Model != "small" || job.Language != "zh" || job.Timeout != time.Minute || job.AudioPath != audio {
		t.Fatalf("unexpected job %+v", job)
	}

	engine.jobs = nil
	tr.Transcribe(context.Background(), Request{AudioPath: audio, Model: "large-v3", Language: "en"})
	if engine.jobs[0].Model != "large-v3" || engine.jobs[0].Language != "en" {
		t.Fatalf("request overrides ignored: %+v", engine.jobs[0])
	}
}

func TestUnsupportedTaskRejectedBeforeEngine(t *testing.T) {
	engine := &fakeEngine{}
	tr := New(Options{WorkDir: t.TempDir()}, WithEngine(engine), WithProber(fakeProber{}))
	audio := testsupport.WriteAudio(t, t.TempDir(), "clip.ogg")

	res := tr.Transcribe(context.Background(), Request{AudioPath: audio, Task: "translate"})
	assertFailure(t, res, services.KindEngineExecutionFailed)
	if len(engine.jobs) != 0 {
		t.Fatal("engine must not run for unsupported task")
	}
}

func TestRequestIDFromContextIsKept(t *testing.T) {
	engine := &fakeEngine{files: map[string]string{"clip.json": `{"text":"x"}`}}
	tr := New(Options{WorkDir: t.TempDir()}, WithEngine(engine), WithProber(fakeProber{}))
	audio := testsupport.WriteAudio(t, t.TempDir(), "clip.ogg")

	ctx := services.WithRequestID(context.Background(), "req-123")
	if res := tr.Transcribe(ctx, Request{AudioPath: audio}); res.ID != "req-123" {
		t.Fatalf("expected request id to be kept, got %q", res.ID)
	}
}

func TestFailureCarriesUnroundedProbe(t *testing.T) {
	engine := &fakeEngine{err: services.Wrap(services.ErrEngineFailed, "", "", "bad", nil)}
	tr := New(Options{WorkDir: t.TempDir()}, WithEngine(engine), WithProber(fakeProber{seconds: 12.345678, ok: true}))
	audio := testsupport.WriteAudio(t, t.TempDir(), "clip.ogg")

	res := tr.Transcribe(context.Background(), Request{AudioPath: audio})
	assertFailure(t, res, services.KindEngineExecutionFailed)
	assertSeconds(t, res, 12.345678)
}
