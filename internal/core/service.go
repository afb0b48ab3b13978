package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Store   EntityStore
	Tokens  *TokenSet      // nil means an empty set
	Limiter *ImportLimiter // nil means the default limits
	Logger  *slog.Logger   // nil means slog.Default()
}

// Service provides every transit-directory operation. It owns the token
// set and checks credentials before any other work on a mutating call.
type Service struct {
	store      EntityStore
	tokens     *TokenSet
	limiter    *ImportLimiter
	validator  *Validator
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if cfg.Tokens == nil {
		cfg.Tokens = NewTokenSet()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewImportLimiter(0, 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	v := NewValidator()
	return &Service{
		store:      cfg.Store,
		tokens:     cfg.Tokens,
		limiter:    cfg.Limiter,
		validator:  v,
		reconciler: NewReconciler(cfg.Store, v, cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// Tokens returns the service's token set.
func (s *Service) Tokens() *TokenSet {
	return s.tokens
}

// Limiter returns the import limiter, e.g. to drain it on shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Authorize checks a credential without doing any other work. Callers that
// must decode input before calling an import use it to report credential
// problems first.
func (s *Service) Authorize(cred Credential) error {
	return s.tokens.authorize(cred)
}

func definition(kind Kind) (KindDefinition, error) {
	def, ok := Get(kind)
	if !ok {
		return KindDefinition{}, fmt.Errorf("%w: unknown kind %q", ErrNotFound, kind)
	}
	return def, nil
}

// List returns every record of kind in the store's natural order.
func (s *Service) List(ctx context.Context, kind Kind) ([]Record, error) {
	if _, err := definition(kind); err != nil {
		return nil, err
	}
	return s.store.List(ctx, kind)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Record, error) {
	if _, err := definition(kind); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, kind, id)
}

// Create builds a record from fields and stores it.
func (s *Service) Create(ctx context.Context, cred Credential, kind Kind, fields Fields) (Record, error) {
	if err := s.tokens.authorize(cred); err != nil {
		return nil, err
	}
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}

	rec, err := def.Build(def.CanonicalFields(fields))
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(rec); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "entity created", "kind", kind, "id", rec.Key())
	return rec, nil
}

// Update merges the present fields into the stored record. Absent fields
// keep their value; Line stops are unioned. A key field that differs from
// id is rejected without side effects.
func (s *Service) Update(ctx context.Context, cred Credential, kind Kind, id int64, fields Fields) (Record, error) {
	if err := s.tokens.authorize(cred); err != nil {
		return nil, err
	}
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	rec, err := def.Merge(existing, def.CanonicalFields(fields))
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(rec); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, id, rec); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "entity updated", "kind", kind, "id", id)
	return rec, nil
}

// Delete removes a record and everything that cascades from it.
func (s *Service) Delete(ctx context.Context, cred Credential, kind Kind, id int64) error {
	if err := s.tokens.authorize(cred); err != nil {
		return err
	}
	if _, err := definition(kind); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "entity deleted", "kind", kind, "id", id, "remote_addr", RemoteAddrFromContext(ctx))
	return nil
}

// Nearby ranks the stored stops around (lat, lon). No credential is needed.
func (s *Service) Nearby(ctx context.Context, lat, lon float64) ([]NearbyStop, error) {
	recs, err := s.store.List(ctx, KindStop)
	if err != nil {
		return nil, err
	}
	stops := make([]Stop, 0, len(recs))
	for _, rec := range recs {
		if st, ok := rec.(Stop); ok {
			stops = append(stops, st)
		}
	}
	return RankNearby(lat, lon, stops), nil
}

// Import applies a CSV batch. It fails as a whole only when the batch
// cannot be opened (no credential, bad credential, no input, no slot);
// row-level problems land in the result's Invalid list.
func (s *Service) Import(ctx context.Context, cred Credential, kind Kind, mode ImportMode, r io.Reader) (*ImportResult, error) {
	if err := s.tokens.authorize(cred); err != nil {
		return nil, batchOpen(err)
	}
	if r == nil {
		return nil, batchOpen(errors.New("no input stream"))
	}
	return s.importRows(ctx, kind, mode, NewCSVReader(r))
}

// ImportRows applies already-tokenized rows, e.g. decoded from a feed.
func (s *Service) ImportRows(ctx context.Context, cred Credential, kind Kind, mode ImportMode, rows RowReader) (*ImportResult, error) {
	if err := s.tokens.authorize(cred); err != nil {
		return nil, batchOpen(err)
	}
	if rows == nil {
		return nil, batchOpen(errors.New("no input stream"))
	}
	return s.importRows(ctx, kind, mode, rows)
}

func (s *Service) importRows(ctx context.Context, kind Kind, mode ImportMode, rows RowReader) (*ImportResult, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, batchOpen(err)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, batchOpen(err)
	}
	defer s.limiter.Release()
	s.logger.DebugContext(ctx, "import slot acquired", "kind", kind, "available", s.limiter.Available())

	// A started batch runs to completion regardless of the caller's context.
	return s.reconciler.Run(context.WithoutCancel(ctx), def, mode, rows)
}

// LinesForStop returns the lines whose stops include stopID.
func (s *Service) LinesForStop(ctx context.Context, stopID int64) ([]Line, error) {
	return s.store.LinesForStop(ctx, stopID)
}

// VehiclesForLine returns the vehicles assigned to lineID.
func (s *Service) VehiclesForLine(ctx context.Context, lineID int64) ([]Vehicle, error) {
	return s.store.VehiclesForLine(ctx, lineID)
}

// RemoveStopsFromLine unlinks stopIDs from the line. Ids that are not
// members are ignored. Returns how many stops were removed.
func (s *Service) RemoveStopsFromLine(ctx context.Context, cred Credential, lineID int64, stopIDs []int64) (int, error) {
	if err := s.tokens.authorize(cred); err != nil {
		return 0, err
	}
	n, err := s.store.RemoveStopsFromLine(ctx, lineID, stopIDs)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "stops removed from line", "line", lineID, "removed", n)
	return n, nil
}

// Describe renders records as text, one line per record.
func Describe(recs []Record) string {
	var b strings.Builder
	for _, rec := range recs {
		def, ok := Get(rec.Kind())
		if !ok {
			continue
		}
		b.WriteString(def.Describe(rec))
		b.WriteByte('\n')
	}
	return b.String()
}
