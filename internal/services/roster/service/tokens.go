package service

import (
	"context"
	"sync"
)

// tokenSet carries the bearer tokens for one pass. An empty token marks the
// source unavailable for the whole pass; every character degrades the same way
type tokenSet struct {
	Armory string
	WCLogs string
}

// passTokens exchanges credentials for both authenticated providers once per
// pass. Exchange failures are absorbed into empty tokens and logged
func (s *Svc) passTokens(ctx context.Context) tokenSet {
	var (
		toks tokenSet
		wg   sync.WaitGroup
	)

	fetch := func(name string, src tokenSource, dst *string) {
		defer wg.Done()
		if !src.Configured() {
			s.deps.Log.Debug().Str("source", name).Msg("credentials absent source disabled this pass")
			return
		}
		tok, err := src.Exchange(ctx)
		if err != nil {
			s.deps.Log.Warn().Err(err).Str("source", name).Msg("token exchange failed source disabled this pass")
			return
		}
		*dst = tok
	}

	wg.Add(2)
	go fetch("armory", s.armoryTokens, &toks.Armory)
	go fetch("wclogs", s.logsTokens, &toks.WCLogs)
	wg.Wait()

	return toks
}
