package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
)

// In-memory fakes backing the handler tests.

type memGoalRepo struct {
	mu    sync.Mutex
	goals map[string]*goal.Goal
}

func newMemGoalRepo() *memGoalRepo {
	return &memGoalRepo{goals: make(map[string]*goal.Goal)}
}

func goalKey(m goal.MemberID, name string) string {
	return fmt.Sprintf("%d/%s", m, name)
}

func (r *memGoalRepo) Upsert(_ context.Context, g *goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goalKey(g.MemberID, g.Name)] = g.Clone()
	return nil
}

func (r *memGoalRepo) Get(_ context.Context, m goal.MemberID, name string) (*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalKey(m, name)]
	if !ok {
		return nil, goal.ErrGoalNotFound
	}
	return g.Clone(), nil
}

func (r *memGoalRepo) ListByMember(_ context.Context, m goal.MemberID) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.Goal
	for _, g := range r.goals {
		if g.MemberID == m {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGoalRepo) ListAll(_ context.Context) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.Goal
	for _, g := range r.goals {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (r *memGoalRepo) Delete(_ context.Context, m goal.MemberID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := goalKey(m, name)
	if _, ok := r.goals[key]; !ok {
		return goal.ErrGoalNotFound
	}
	delete(r.goals, key)
	return nil
}

func (r *memGoalRepo) CountByMember(ctx context.Context, m goal.MemberID) (int, error) {
	goals, _ := r.ListByMember(ctx, m)
	return len(goals), nil
}

type memProgressRepo struct {
	mu      sync.Mutex
	entries map[string]*goal.ProgressEntry
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{entries: make(map[string]*goal.ProgressEntry)}
}

func progressKey(m goal.MemberID, w goal.WeekKey, name string) string {
	return fmt.Sprintf("%d/%s/%s", m, w, name)
}

func (r *memProgressRepo) entry(m goal.MemberID, w goal.WeekKey, name string) *goal.ProgressEntry {
	key := progressKey(m, w, name)
	e, ok := r.entries[key]
	if !ok {
		e = &goal.ProgressEntry{MemberID: m, WeekKey: w, GoalName: name}
		r.entries[key] = e
	}
	return e
}

func (r *memProgressRepo) AddDelta(_ context.Context, m goal.MemberID, w goal.WeekKey, name string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(m, w, name).ApplyDelta(delta), nil
}

func (r *memProgressRepo) SetValue(_ context.Context, m goal.MemberID, w goal.WeekKey, name string, value int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(m, w, name).SetValue(value), nil
}

func (r *memProgressRepo) SetDone(_ context.Context, m goal.MemberID, w goal.WeekKey, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(m, w, name).MarkDone()
	return nil
}

func (r *memProgressRepo) ClearDone(_ context.Context, m goal.MemberID, w goal.WeekKey, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[progressKey(m, w, name)]
	if !ok {
		return false, nil
	}
	return e.ClearDone(), nil
}

func (r *memProgressRepo) Get(_ context.Context, m goal.MemberID, w goal.WeekKey, name string) (*goal.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[progressKey(m, w, name)]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (r *memProgressRepo) ListByWeek(_ context.Context, w goal.WeekKey) ([]*goal.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.ProgressEntry
	for _, e := range r.entries {
		if e.WeekKey == w {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memProgressRepo) ListByMemberWeek(_ context.Context, m goal.MemberID, w goal.WeekKey) ([]*goal.ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.ProgressEntry
	for _, e := range r.entries {
		if e.MemberID == m && e.WeekKey == w {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memProgressRepo) ResetWeek(_ context.Context, w goal.WeekKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, e := range r.entries {
		if e.WeekKey == w {
			delete(r.entries, key)
		}
	}
	return nil
}

type memLogRepo struct {
	mu     sync.Mutex
	events []*goal.LogEvent
}

func (r *memLogRepo) Append(_ context.Context, event *goal.LogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memLogRepo) ListByMemberWeek(_ context.Context, m goal.MemberID, w goal.WeekKey) ([]*goal.LogEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.LogEvent
	for _, e := range r.events {
		if e.MemberID == m && e.WeekKey == w {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLogRepo) ListByWeek(_ context.Context, w goal.WeekKey) ([]*goal.LogEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.LogEvent
	for _, e := range r.events {
		if e.WeekKey == w {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLogRepo) LastNote(ctx context.Context, m goal.MemberID, w goal.WeekKey) (string, bool, error) {
	events, _ := r.ListByMemberWeek(ctx, m, w)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].HasNote() {
			return events[i].Note, true, nil
		}
	}
	return "", false, nil
}

type memParticipantRepo struct {
	mu      sync.Mutex
	members map[participant.MemberID]*participant.Participant
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{members: make(map[participant.MemberID]*participant.Participant)}
}

func (r *memParticipantRepo) Upsert(_ context.Context, p *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.members[p.MemberID] = &clone
	return nil
}

func (r *memParticipantRepo) Get(_ context.Context, m participant.MemberID) (*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.members[m]
	if !ok {
		return nil, participant.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memParticipantRepo) ListActive(_ context.Context) ([]*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*participant.Participant
	for _, p := range r.members {
		if p.Active {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *memParticipantRepo) ListAll(_ context.Context) ([]*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*participant.Participant
	for _, p := range r.members {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *memParticipantRepo) CountActive(ctx context.Context) (int, error) {
	active, _ := r.ListActive(ctx)
	return len(active), nil
}

type memVerdictRepo struct {
	mu       sync.Mutex
	verdicts map[goal.WeekKey]*challenge.CycleVerdict
}

func newMemVerdictRepo() *memVerdictRepo {
	return &memVerdictRepo{verdicts: make(map[goal.WeekKey]*challenge.CycleVerdict)}
}

func (r *memVerdictRepo) Upsert(_ context.Context, v *challenge.CycleVerdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts[v.WeekKey] = v
	return nil
}

func (r *memVerdictRepo) Get(_ context.Context, w goal.WeekKey) (*challenge.CycleVerdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verdicts[w]
	if !ok {
		return nil, fmt.Errorf("verdict for %s: not found", w)
	}
	return v, nil
}

func (r *memVerdictRepo) ListRecent(_ context.Context, limit int) ([]*challenge.CycleVerdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*challenge.CycleVerdict
	for _, v := range r.verdicts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekKey > out[j].WeekKey })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memStreakRepo struct {
	mu    sync.Mutex
	state *challenge.StreakState
}

func (r *memStreakRepo) Get(_ context.Context) (*challenge.StreakState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = challenge.NewStreakState()
	}
	clone := *r.state
	return &clone, nil
}

func (r *memStreakRepo) Save(_ context.Context, state *challenge.StreakState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *state
	r.state = &clone
	return nil
}

type memPuzzleRepo struct {
	mu      sync.Mutex
	records map[puzzle.MemberID]*puzzle.PlayerRecord
}

func newMemPuzzleRepo() *memPuzzleRepo {
	return &memPuzzleRepo{records: make(map[puzzle.MemberID]*puzzle.PlayerRecord)}
}

func clonePuzzleRecord(r *puzzle.PlayerRecord) *puzzle.PlayerRecord {
	clone := *r
	clone.Scores = make(map[int]puzzle.Score, len(r.Scores))
	for k, v := range r.Scores {
		clone.Scores[k] = v
	}
	return &clone
}

func (r *memPuzzleRepo) Upsert(_ context.Context, record *puzzle.PlayerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.MemberID] = clonePuzzleRecord(record)
	return nil
}

func (r *memPuzzleRepo) Get(_ context.Context, m puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[m]
	if !ok {
		return nil, puzzle.ErrNotFound
	}
	return clonePuzzleRecord(record), nil
}

func (r *memPuzzleRepo) GetOrCreate(_ context.Context, m puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[m]
	if !ok {
		fresh, err := puzzle.NewPlayerRecord(m)
		if err != nil {
			return nil, err
		}
		r.records[m] = fresh
		record = fresh
	}
	return clonePuzzleRecord(record), nil
}

func (r *memPuzzleRepo) ListAll(_ context.Context) ([]*puzzle.PlayerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*puzzle.PlayerRecord
	for _, record := range r.records {
		out = append(out, clonePuzzleRecord(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (r *memPuzzleRepo) ListJoined(ctx context.Context) ([]*puzzle.PlayerRecord, error) {
	all, _ := r.ListAll(ctx)
	var out []*puzzle.PlayerRecord
	for _, record := range all {
		if record.Joined {
			out = append(out, record)
		}
	}
	return out, nil
}

type memPodiumRepo struct {
	mu     sync.Mutex
	latest *puzzle.Podium
}

func (r *memPodiumRepo) Save(_ context.Context, podium *puzzle.Podium) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = podium
	return nil
}

func (r *memPodiumRepo) GetLatest(_ context.Context) (*puzzle.Podium, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return nil, puzzle.ErrNotFound
	}
	return r.latest, nil
}

type memSkipStore struct {
	mu    sync.Mutex
	dates map[string]bool
}

func newMemSkipStore() *memSkipStore {
	return &memSkipStore{dates: make(map[string]bool)}
}

func skipKey(date time.Time) string {
	return date.Format("2006-01-02")
}

func (s *memSkipStore) Add(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates[skipKey(date)] = true
	return nil
}

func (s *memSkipStore) Contains(_ context.Context, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dates[skipKey(date)], nil
}

func (s *memSkipStore) Consume(_ context.Context, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := skipKey(date)
	if !s.dates[key] {
		return false, nil
	}
	delete(s.dates, key)
	return true, nil
}

type fakeRoleSync struct {
	mu      sync.Mutex
	added   []int64
	removed []int64
}

func (f *fakeRoleSync) AddPenaltyMarker(_ context.Context, memberID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, memberID)
	return nil
}

func (f *fakeRoleSync) RemovePenaltyMarker(_ context.Context, memberID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, memberID)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, _ notification.ChannelRef, text string) (*notification.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return &notification.DeliveryResult{MessageID: fmt.Sprintf("msg-%d", len(f.sent)), DeliveredAt: time.Now()}, nil
}
