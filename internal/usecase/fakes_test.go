package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/loanwatch/loanwatch/internal/domain/match"
)

// fakeDataSource serves canned fixtures and snapshots keyed by team and
// fixture, with optional per-key errors.
type fakeDataSource struct {
	mu             sync.Mutex
	nextByTeam     map[int64]FixtureInfo
	nextErrByTeam  map[int64]error
	stateByFixture map[int64]match.Snapshot
	stateErrByFix  map[int64]error
	stateCalls     int
}

func newFakeDataSource() *fakeDataSource {
	return &fakeDataSource{
		nextByTeam:     make(map[int64]FixtureInfo),
		nextErrByTeam:  make(map[int64]error),
		stateByFixture: make(map[int64]match.Snapshot),
		stateErrByFix:  make(map[int64]error),
	}
}

func (f *fakeDataSource) NextFixture(_ context.Context, teamID int64) (FixtureInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.nextErrByTeam[teamID]; err != nil {
		return FixtureInfo{}, false, err
	}
	info, ok := f.nextByTeam[teamID]
	return info, ok, nil
}

func (f *fakeDataSource) MatchState(_ context.Context, fixtureID, _, _ int64) (match.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stateCalls++
	if err := f.stateErrByFix[fixtureID]; err != nil {
		return match.Snapshot{}, err
	}
	snap, ok := f.stateByFixture[fixtureID]
	if !ok {
		return match.Snapshot{}, fmt.Errorf("%w: fixture %d", ErrNotFound, fixtureID)
	}
	return snap, nil
}

// recordingPublisher captures published texts; it can be told to fail.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, text)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.messages))
	copy(out, p.messages)
	return out
}
