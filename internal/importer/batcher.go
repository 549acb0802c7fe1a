package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"runnerdb/internal/config"
	"runnerdb/internal/logging"
	"runnerdb/internal/runnerdb"
)

// Row is one pre-parsed import record.
type Row struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	BirthYear   *int   `json:"birth_year,omitempty"`
	Sex         string `json:"sex,omitempty"`
	Club        string `json:"club,omitempty"`
	CardNumber  *int   `json:"card_number,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// RowError explains why a row was skipped. Row is 1-based.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result summarizes one import batch.
type Result struct {
	BatchID  string        `json:"batch_id"`
	Imported int           `json:"imported"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
	Errors   []RowError    `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Progress is reported every progress interval and once at the end.
type Progress struct {
	BatchID   string
	Processed int
	Total     int
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithProgress registers a callback invoked between rows.
func WithProgress(fn func(Progress)) Option {
	return func(b *Batcher) { b.progress = fn }
}

// Batcher imports rows into a store.
type Batcher struct {
	store              *runnerdb.Store
	defaultNationality string
	progressInterval   int
	progress           func(Progress)
	logger             *slog.Logger
}

// New creates a batcher from the import config section.
func New(store *runnerdb.Store, cfg config.Import, logger *slog.Logger, opts ...Option) *Batcher {
	b := &Batcher{
		store:              store,
		defaultNationality: strings.ToUpper(strings.TrimSpace(cfg.DefaultNationality)),
		progressInterval:   cfg.ProgressInterval,
		logger:             logging.NewComponentLogger(logger, "importer"),
	}
	if b.defaultNationality == "" {
		b.defaultNationality = runnerdb.DefaultNationality
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Import upserts every valid row and saves once. Malformed rows are skipped
// and listed in Result.Errors. If ctx is cancelled the loop stops, the rows
// already applied are still saved, and ctx.Err() is returned with the result.
func (b *Batcher) Import(ctx context.Context, rows []Row) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	result := &Result{BatchID: uuid.NewString()}
	logger := b.logger.With(logging.String(logging.FieldBatchID, result.BatchID))
	logger.Debug("import started", logging.Int("rows", len(rows)))

	var stopErr error
	processed := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		rec, reason := b.toRunner(row)
		if reason != "" {
			b.skip(result, i+1, reason)
		} else {
			_, existed := b.store.Runner(rec.ID)
			if _, err := b.store.UpsertRunner(ctx, rec, runnerdb.Deferred()); err != nil {
				b.skip(result, i+1, err.Error())
			} else {
				result.Imported++
				if !existed {
					result.Created++
				}
			}
		}
		processed++
		if b.progress != nil && b.progressInterval > 0 && processed%b.progressInterval == 0 {
			b.progress(Progress{BatchID: result.BatchID, Processed: processed, Total: len(rows)})
		}
	}

	if err := b.store.Save(context.WithoutCancel(ctx)); err != nil {
		result.Duration = time.Since(started)
		logging.ErrorWithContext(logger, "import save failed", "import_save_failed",
			logging.Error(err),
			logging.Int("imported", result.Imported),
			logging.String(logging.FieldErrorHint, "re-run the import; already-saved rows collapse by natural key"))
		return result, fmt.Errorf("save import batch: %w", err)
	}
	if b.progress != nil {
		b.progress(Progress{BatchID: result.BatchID, Processed: processed, Total: len(rows)})
	}
	result.Duration = time.Since(started)

	if result.Skipped > 0 {
		logging.WarnWithContext(logger, "import skipped rows", "import_rows_skipped",
			logging.Int("skipped", result.Skipped),
			logging.String("first_error", result.Errors[0].Error()),
			logging.String(logging.FieldErrorHint, "fix the listed rows and import them again"),
			logging.String(logging.FieldImpact, "skipped rows were not stored"))
	}
	logger.Info("batch complete",
		logging.String(logging.FieldEventType, "import_complete"),
		logging.Int("imported", result.Imported),
		logging.Int("created", result.Created),
		logging.Int("skipped", result.Skipped),
		logging.Duration("duration", result.Duration))
	return result, stopErr
}

func (b *Batcher) skip(result *Result, row int, reason string) {
	result.Skipped++
	result.Errors = append(result.Errors, RowError{Row: row, Reason: reason})
}

// toRunner converts a row into a runner record or returns a skip reason.
func (b *Batcher) toRunner(row Row) (*runnerdb.Runner, string) {
	first := strings.TrimSpace(row.FirstName)
	last := strings.TrimSpace(row.LastName)
	switch {
	case first == "" && last == "":
		return nil, "missing first and last name"
	case first == "":
		return nil, "missing first name"
	case last == "":
		return nil, "missing last name"
	}
	sex, ok := runnerdb.ParseSex(row.Sex)
	if !ok {
		return nil, fmt.Sprintf("unrecognized sex %q", row.Sex)
	}
	nationality := strings.ToUpper(strings.TrimSpace(row.Nationality))
	if nationality == "" {
		nationality = b.defaultNationality
	}
	return &runnerdb.Runner{
		ID:          NaturalKey(last, first, row.BirthYear),
		FirstName:   first,
		LastName:    last,
		BirthYear:   row.BirthYear,
		Sex:         sex,
		Club:        strings.TrimSpace(row.Club),
		CardNumber:  row.CardNumber,
		Nationality: nationality,
	}, ""
}
