package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voicescribe/internal/transcription"
)

// Sources recorded alongside each entry.
const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 20

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound indicates no entry matches the requested id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded transcription outcome.
type Entry struct {
	ID          string
	CreatedAt   time.Time
	Source      string
	AudioPath   string
	Model       string
	Text        *string
	Language    string
	Seconds     *float64
	FailureKind string
	Reason      string
	Elapsed     time.Duration
}

// Succeeded reports whether the recorded run produced text.
func (e Entry) Succeeded() bool {
	return e.FailureKind == "" && e.Text != nil
}

// Result rebuilds the public result object from the entry.
func (e Entry) Result() transcription.Result {
	res := transcription.Result{
		ID:       e.ID,
		Model:    e.Model,
		Text:     e.Text,
		Language: e.Language,
		Seconds:  e.Seconds,
		Elapsed:  e.Elapsed,
	}
	if !e.Succeeded() {
		res.Text = nil
		res.Language = ""
		res.Err = &transcription.Failure{Kind: failureKind(e.FailureKind), Reason: e.Reason}
	}
	return res
}

// FromResult captures a transcription result for recording.
func FromResult(res transcription.Result, audioPath, source string) Entry {
	entry := Entry{
		ID:        res.ID,
		Source:    source,
		AudioPath: audioPath,
		Model:     res.Model,
		Text:      res.Text,
		Language:  res.Language,
		Seconds:   res.Seconds,
		Elapsed:   res.Elapsed,
	}
	if res.Err != nil {
		entry.Text = nil
		entry.FailureKind = string(res.Err.Kind)
		entry.Reason = res.Err.Reason
	}
	return entry
}

// Record appends an entry. Missing ids and timestamps are filled in; the
// stored entry is returned.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	ctx = ensureContext(ctx)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO transcriptions
			(id, created_at, source, audio_path, model, text, language, seconds, failure_kind, reason, elapsed_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			entry.CreatedAt.Format(timeLayout),
			entry.Source,
			entry.AudioPath,
			entry.Model,
			nullableString(entry.Text),
			nullIfEmpty(entry.Language),
			nullableFloat(entry.Seconds),
			nullIfEmpty(entry.FailureKind),
			nullIfEmpty(entry.Reason),
			entry.Elapsed.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("record history entry: %w", err)
	}
	return entry, nil
}

const selectColumns = `id, created_at, source, audio_path, model, text, language, seconds, failure_kind, reason, elapsed_ms`

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transcriptions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Get returns one entry by id. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transcriptions WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY (id = ?) DESC LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return Entry{}, fmt.Errorf("get history entry: %w", err)
	}
	defer rows.Close()

	var matches []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("iterate history: %w", err)
	}
	switch {
	case len(matches) == 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case matches[0].ID == id || len(matches) == 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("history id prefix %q is ambiguous", id)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry      Entry
		createdRaw string
		text       sql.NullString
		language   sql.NullString
		seconds    sql.NullFloat64
		kind       sql.NullString
		reason     sql.NullString
		elapsedMS  int64
	)
	if err := row.Scan(&entry.ID, &createdRaw, &entry.Source, &entry.AudioPath, &entry.Model,
		&text, &language, &seconds, &kind, &reason, &elapsedMS); err != nil {
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	created, err := time.Parse(timeLayout, createdRaw)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	entry.CreatedAt = created
	if text.Valid {
		v := text.String
		entry.Text = &v
	}
	if seconds.Valid {
		v := seconds.Float64
		entry.Seconds = &v
	}
	entry.Language = language.String
	entry.FailureKind = kind.String
	entry.Reason = reason.String
	entry.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return entry, nil
}
