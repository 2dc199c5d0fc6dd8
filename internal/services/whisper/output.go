package whisper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voicescribe/internal/services"
)

// Segment is one timed span of the engine's JSON output.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Document is the subset of the engine's JSON output the normalizer reads.
// Missing or null fields decode to their zero values.
type Document struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// LastSegmentEnd reports the end timestamp of the final segment.
func (d Document) LastSegmentEnd() (float64, bool) {
	if len(d.Segments) == 0 {
		return 0, false
	}
	return d.Segments[len(d.Segments)-1].End, true
}

// OutputStem returns the file name the engine derives from audioPath:
// the base name with its final extension removed.
func OutputStem(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LocateOutput finds the engine's JSON output in dir. The file named after
// the audio stem wins; otherwise the first *.json regular file by name is
// used.
func LocateOutput(dir, audioPath string) (string, error) {
	preferred := filepath.Join(dir, OutputStem(audioPath)+OutputExtension)
	if info, err := os.Stat(preferred); err == nil && info.Mode().IsRegular() {
		return preferred, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %w", services.ErrOutputMissing, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != OutputExtension {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return "", services.ErrOutputMissing
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// LoadDocument reads and decodes an engine output file. The top level must
// be a JSON object.
func LoadDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", services.ErrOutputParse, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return doc, services.Wrap(services.ErrOutputParse, "", "", fmt.Sprintf("%s: expected a JSON object", filepath.Base(path)), nil)
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return doc, services.Wrap(services.ErrOutputParse, "", "", filepath.Base(path), err)
	}
	return doc, nil
}
