package core

// reconcile.go applies an import batch row by row.
//
// A batch is best effort: each row either lands in the store or is listed
// as invalid, and no row-level problem stops the rows after it. Rows that
// were applied before a failure stay applied.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reconciler drives import batches against a store.
type Reconciler struct {
	store     EntityStore
	validator *Validator
	logger    *slog.Logger
}

// NewReconciler returns a Reconciler. A nil logger uses slog.Default().
func NewReconciler(store EntityStore, v *Validator, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, validator: v, logger: logger}
}

// Run reads every row and applies it in mode. Each row is identified by
// its first cell, verbatim. The batch runs to the end of the input even if
// ctx is cancelled, so callers should pass a context that outlives the
// request. The returned error is non-nil only when rows stop being
// readable; the result then covers the rows handled so far and carries the
// reason in Interrupted.
func (r *Reconciler) Run(ctx context.Context, def KindDefinition, mode ImportMode, rows RowReader) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{
		ImportID: uuid.NewString(),
		Kind:     def.Kind,
		Mode:     mode.String(),
		Valid:    make([]string, 0),
		Invalid:  make([]string, 0),
	}
	log := r.logger.With("import_id", result.ImportID, "kind", def.Kind, "mode", mode.String())

	var runErr error
	for n := 1; ; n++ {
		row, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				runErr = fmt.Errorf("read row %d: %w", n, err)
				break
			}
			// Unparsable line: reject it and keep reading.
			result.Rows++
			label := rowLabel(row, pe.StartLine)
			result.Invalid = append(result.Invalid, label)
			log.DebugContext(ctx, "import row rejected", "row", label, "line", pe.StartLine, "error", err)
			continue
		}

		result.Rows++
		label := rowLabel(row, n)
		if err := r.applyRow(ctx, def, mode, row); err != nil {
			result.Invalid = append(result.Invalid, label)
			log.DebugContext(ctx, "import row rejected", "row", label, "record", n, "error", err)
			continue
		}
		result.Valid = append(result.Valid, label)
	}

	if runErr != nil {
		result.Interrupted = runErr.Error()
	}
	result.Duration = time.Since(start)
	log.InfoContext(ctx, "import finished",
		"rows", result.Rows,
		"accepted", len(result.Valid),
		"rejected", len(result.Invalid),
		"duration_ms", result.Duration.Milliseconds(),
		"remote_addr", RemoteAddrFromContext(ctx),
	)
	return result, runErr
}

func (r *Reconciler) applyRow(ctx context.Context, def KindDefinition, mode ImportMode, row []string) error {
	if mode == ModeInsert {
		return r.insertRow(ctx, def, row)
	}

	f, err := def.RowFields(row, true)
	if err != nil {
		return err
	}
	id, err := def.KeyOf(f)
	if err != nil {
		return err
	}

	existing, err := r.store.Get(ctx, def.Kind, id)
	if errors.Is(err, ErrNotFound) && mode == ModeUpsert {
		return r.insertRow(ctx, def, row)
	}
	if err != nil {
		return err
	}

	rec, err := def.Merge(existing, f)
	if err != nil {
		return err
	}
	if err := r.validator.Validate(rec); err != nil {
		return err
	}
	return r.store.Update(ctx, id, rec)
}

func (r *Reconciler) insertRow(ctx context.Context, def KindDefinition, row []string) error {
	f, err := def.RowFields(row, false)
	if err != nil {
		return err
	}
	rec, err := def.Build(f)
	if err != nil {
		return err
	}
	if err := r.validator.Validate(rec); err != nil {
		return err
	}
	return r.store.Create(ctx, rec)
}

// rowLabel returns the row's first cell, or "line N" when there is none.
func rowLabel(row []string, line int) string {
	if len(row) > 0 {
		return row[0]
	}
	return fmt.Sprintf("line %d", line)
}

// Render returns the valid ids under "Added:" (or "Updated:") followed by
// the invalid ids under "Invalid:", newline-joined without a trailing newline.
func (res *ImportResult) Render() string {
	header := "Added:"
	if res.Mode != ModeInsert.String() {
		header = "Updated:"
	}
	lines := make([]string, 0, len(res.Valid)+len(res.Invalid)+2)
	lines = append(lines, header)
	lines = append(lines, res.Valid...)
	lines = append(lines, "Invalid:")
	lines = append(lines, res.Invalid...)
	return strings.Join(lines, "\n")
}
