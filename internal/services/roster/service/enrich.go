package service

import (
	"context"
	"sync"
	"time"

	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
	"guildaudit/internal/platform/logger"
	"guildaudit/internal/services/roster/domain"
)

// enrichOne fetches all sources for one character, reconciles them, and diffs
// weekly progress against the persisted baseline. Source failures degrade;
// even total failure yields a record built from the prior enriched state
func (s *Svc) enrichOne(
	ctx context.Context,
	sc domain.StoredCharacter,
	toks tokenSet,
	resetAt time.Time,
) domain.SyncOutcome {
	var (
		wg                  sync.WaitGroup
		fromArmory, fromLog *merge.Partial
		fromAgg             *merge.Partial
	)

	wg.Add(3)
	go func() { defer wg.Done(); fromArmory = s.armory.Fetch(ctx, sc.Character, toks.Armory) }()
	go func() { defer wg.Done(); fromAgg = s.aggregator.Fetch(ctx, sc.Character) }()
	go func() { defer wg.Done(); fromLog = s.logs.Fetch(ctx, sc.Character, toks.WCLogs) }()
	wg.Wait()

	// source outages are absorbed at the client boundary; when every source
	// came back empty the merge backstop carries the prior state forward and
	// the weekly derivation stays empty
	if fromArmory == nil && fromAgg == nil && fromLog == nil {
		logger.C(ctx).Warn().Str("character", sc.Key).Msg("no source reachable, keeping prior state")
	}

	// profile first so its scalars win conflicts; logs last, it rarely
	// carries profile facts
	merged := merge.Records(priorFrom(sc.Enriched), fromArmory, fromAgg, fromLog)

	diffed := progress.Diff(merged.Kills, sc.Baseline, resetAt)

	// two independent weekly derivations: counter diff vs log walk
	weekly := merge.PreferLonger(diffed.Details, merged.WeeklyKills)

	enr := &domain.Enriched{
		ItemLevel:       merged.ItemLevel,
		Class:           merged.Class,
		Spec:            merged.Spec,
		Thumbnail:       merged.Thumbnail,
		Mounts:          merged.Mounts,
		Pets:            merged.Pets,
		PvPRatings:      merged.PvPRatings,
		Reputations:     merged.Reputations,
		MythicPlusScore: merged.MythicPlusScore,
		RaidProgression: merged.RaidProgression,
		BestPerfAvg:     merged.BestPerfAvg,
		MedianPerfAvg:   merged.MedianPerfAvg,
		WeeklyKillCount: len(weekly),
		WeeklyKills:     weekly,
		Sources:         contributors(fromArmory, fromAgg, fromLog),
		SyncedAt:        s.now().UTC(),
	}

	return domain.SyncOutcome{
		Character: sc.Character,
		Enriched:  enr,
		Baseline:  diffed.NewBaseline,
	}
}

// priorFrom lifts the persisted enrichment into the merge backstop
func priorFrom(e *domain.Enriched) merge.Prior {
	if e == nil {
		return merge.Prior{}
	}
	return merge.Prior{
		ItemLevel:       e.ItemLevel,
		Class:           e.Class,
		Spec:            e.Spec,
		Thumbnail:       e.Thumbnail,
		Mounts:          e.Mounts,
		Pets:            e.Pets,
		PvPRatings:      e.PvPRatings,
		Reputations:     e.Reputations,
		MythicPlusScore: e.MythicPlusScore,
		RaidProgression: e.RaidProgression,
		BestPerfAvg:     e.BestPerfAvg,
		MedianPerfAvg:   e.MedianPerfAvg,
	}
}

func contributors(parts ...*merge.Partial) []string {
	var out []string
	for _, p := range parts {
		if p != nil {
			out = append(out, p.Source)
		}
	}
	return out
}
