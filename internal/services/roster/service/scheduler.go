package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"guildaudit/internal/modkit/repokit"
	perr "guildaudit/internal/platform/errors"
	"guildaudit/internal/platform/logger"
	"guildaudit/internal/services/roster/domain"
)

// RunPass implements domain.SyncerPort. One pass selects the due slice of the
// roster, exchanges provider tokens once, and fans the characters out over a
// fixed worker pool. A panic while syncing one character is contained to that
// character and counted as a failure
func (s *Svc) RunPass(ctx context.Context, opts domain.PassOptions) (domain.SyncSummary, error) {
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx)

	started := s.now()
	cutoff := started.Add(-s.config.StaleAfter)
	if opts.Force {
		cutoff = time.Time{} // select everything
	}

	due, err := s.Repo.ListDue(ctx, cutoff, opts.Limit)
	if err != nil {
		return domain.SyncSummary{RunID: runID}, perr.Wrap(err, perr.ErrorCodeDB, "list due characters")
	}
	if len(due) == 0 {
		log.Info().Msg("audit pass found nothing due")
		return domain.SyncSummary{RunID: runID, Duration: s.now().Sub(started)}, nil
	}

	toks := s.passTokens(ctx)
	resetAt := s.config.Window.Boundary(started)
	dryRun := s.config.DryRun || opts.DryRun

	log.Info().
		Int("due", len(due)).
		Int("concurrency", s.config.Concurrency).
		Time("reset_at", resetAt).
		Bool("dry_run", dryRun).
		Msg("audit pass starting")

	var (
		cursor         atomic.Int64
		synced, failed atomic.Int64
		wg             sync.WaitGroup
	)

	work := func() {
		defer wg.Done()
		for {
			if ctx.Err() != nil {
				return
			}
			idx := cursor.Add(1) - 1
			if idx >= int64(len(due)) {
				return
			}
			sc := due[idx]

			out := s.syncOne(ctx, sc, toks, resetAt)
			if out.Err == nil && !dryRun {
				if err := s.persist(ctx, sc.Key, out); err != nil {
					out.Err = err
				}
			}

			if out.Err != nil {
				failed.Add(1)
				log.Warn().Err(out.Err).Str("character", sc.Key).Msg("character sync failed")
				continue
			}
			synced.Add(1)
			log.Debug().
				Str("character", sc.Key).
				Int("weekly_kills", out.Enriched.WeeklyKillCount).
				Msg("character synced")
		}
	}

	workers := s.config.Concurrency
	if workers > len(due) {
		workers = len(due)
	}
	wg.Add(workers)
	for range workers {
		go work()
	}
	wg.Wait()

	sum := domain.SyncSummary{
		RunID:    runID,
		Total:    len(due),
		Synced:   int(synced.Load()),
		Failed:   int(failed.Load()),
		Duration: s.now().Sub(started),
	}
	log.Info().
		Int("total", sum.Total).
		Int("synced", sum.Synced).
		Int("failed", sum.Failed).
		Dur("duration", sum.Duration).
		Msg("audit pass finished")
	return sum, ctx.Err()
}

// persist writes the merged view and baseline inside one transaction so a
// partial write never splits them
func (s *Svc) persist(ctx context.Context, key string, out domain.SyncOutcome) error {
	return repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		return s.binder.Bind(q).SaveEnrichment(ctx, key, out.Enriched, out.Baseline, s.now().UTC())
	})
}

// syncOne wraps enrichOne with per-character panic containment
func (s *Svc) syncOne(
	ctx context.Context,
	sc domain.StoredCharacter,
	toks tokenSet,
	resetAt time.Time,
) (out domain.SyncOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.SyncOutcome{
				Character: sc.Character,
				Err:       perr.PanicErrf("sync %s panicked: %v", sc.Key, r),
			}
		}
	}()
	return s.enrichOne(ctx, sc, toks, resetAt)
}
