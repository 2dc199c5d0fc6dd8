package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// enginePreamble mirrors the whisper CLI argument surface. Scripts appended
// to it can use $AUDIO, $OUT_DIR, $MODEL and $STEM.
const enginePreamble = `#!/bin/sh
AUDIO="$1"
OUT_DIR=""
MODEL=""
for arg in "$@"; do
  case "$prev" in
    --output_dir) OUT_DIR="$arg" ;;
    --model) MODEL="$arg" ;;
  esac
  prev="$arg"
done
base=$(basename "$AUDIO")
STEM="${base%.*}"
`

// WriteEngineStub writes an executable engine stub into dir and returns its
// path. script runs after the argument preamble.
func WriteEngineStub(t testing.TB, dir, script string) string {
	t.Helper()
	return writeExecutable(t, filepath.Join(dir, "whisper"), enginePreamble+script+"\n")
}

// WriteProbeStub writes an ffprobe stub that prints output and exits with
// code.
func WriteProbeStub(t testing.TB, dir, output string, code int) string {
	t.Helper()
	body := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' %s\nexit %d\n", shellQuote(output), code)
	return writeExecutable(t, filepath.Join(dir, "ffprobe"), body)
}

// EngineWritesJSON returns an engine script that writes payload to
// <output_dir>/<stem>.json and exits 0.
func EngineWritesJSON(payload string) string {
	return EngineWritesFile("$STEM.json", payload)
}

// EngineWritesFile returns an engine script that writes payload to name
// (shell-expanded) inside the output directory and exits 0.
func EngineWritesFile(name, payload string) string {
	return fmt.Sprintf("cat > \"$OUT_DIR/%s\" <<'VOICESCRIBE_EOF'\n%s\nVOICESCRIBE_EOF\nexit 0", name, payload)
}

// EngineFails returns an engine script that prints stderr and exits code.
func EngineFails(stderr string, code int) string {
	return fmt.Sprintf("printf '%%s' %s >&2\nexit %d", shellQuote(stderr), code)
}

func writeExecutable(t testing.TB, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}

func shellQuote(value string) string {
	out := []byte{'\''}
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' {
			out = append(out, []byte(`'\''`)...)
			continue
		}
		out = append(out, value[i])
	}
	return string(append(out, '\''))
}
