package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
)

// InMemoryGameRepo implementa el catálogo y sus contadores en memoria.
type InMemoryGameRepo struct {
	mu    sync.Mutex
	games map[string]*gameDomain.Game
	Err   error
}

var (
	_ gameDomain.GameRepository = (*InMemoryGameRepo)(nil)
	_ gameDomain.GameCounters   = (*InMemoryGameRepo)(nil)
)

func NewInMemoryGameRepo(games ...gameDomain.Game) *InMemoryGameRepo {
	r := &InMemoryGameRepo{games: make(map[string]*gameDomain.Game)}
	for i := range games {
		g := games[i]
		r.games[g.ID] = &g
	}
	return r
}

func (r *InMemoryGameRepo) GetByID(ctx context.Context, id string) (*gameDomain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	g, ok := r.games[id]
	if !ok {
		return nil, gameDomain.ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *InMemoryGameRepo) GetByIDs(ctx context.Context, ids []string) ([]gameDomain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []gameDomain.Game
	for _, id := range ids {
		if g, ok := r.games[id]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *InMemoryGameRepo) IncrementPlayCount(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	g, ok := r.games[id]
	if !ok {
		return gameDomain.ErrGameNotFound
	}
	g.PlayCount++
	t := at
	g.LastPlayedAt = &t
	return nil
}

func (r *InMemoryGameRepo) IncrementQueueCount(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	g, ok := r.games[id]
	if !ok {
		return gameDomain.ErrGameNotFound
	}
	g.QueueCount++
	t := at
	g.LastQueuedAt = &t
	return nil
}

// FakeSearcher busca por subcadena y, para similitud, por categoría compartida.
// Ignora exclude a propósito si LeakExcluded es true, para probar el filtro del servicio.
type FakeSearcher struct {
	Games        []gameDomain.Game
	LeakExcluded bool
	Err          error
	Seeds        [][]gameDomain.Game
}

var _ gameDomain.GameSearcher = (*FakeSearcher)(nil)

func (s *FakeSearcher) Search(ctx context.Context, q gameDomain.SearchQuery) (gameDomain.SearchResult, error) {
	if s.Err != nil {
		return gameDomain.SearchResult{}, s.Err
	}
	q = q.Normalize()
	var matches []gameDomain.Game
	for _, g := range s.Games {
		text := strings.ToLower(g.Name + " " + g.Description + " " + g.Category)
		if q.Text != "" && !strings.Contains(text, strings.ToLower(q.Text)) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(g.Category, q.Category) {
			continue
		}
		matches = append(matches, g)
	}
	res := gameDomain.SearchResult{Total: int64(len(matches)), Page: q.Page, PageSize: q.PageSize}
	if skip := q.Skip(); skip < len(matches) {
		end := skip + q.PageSize
		if end > len(matches) {
			end = len(matches)
		}
		res.Items = matches[skip:end]
	}
	return res, nil
}

func (s *FakeSearcher) MoreLikeThis(ctx context.Context, seeds []gameDomain.Game, exclude []string, limit int) ([]gameDomain.Game, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Seeds = append(s.Seeds, seeds)
	categories := map[string]bool{}
	for _, g := range seeds {
		categories[g.Category] = true
	}
	excluded := map[string]bool{}
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []gameDomain.Game
	for _, g := range s.Games {
		if !categories[g.Category] {
			continue
		}
		if excluded[g.ID] && !s.LeakExcluded {
			continue
		}
		out = append(out, g)
	}
	if !s.LeakExcluded && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InMemoryPlayRecorder guarda las partidas registradas.
type InMemoryPlayRecorder struct {
	mu    sync.Mutex
	plays []gameDomain.PlayRecord
	Err   error
}

var _ gameDomain.PlayRecorder = (*InMemoryPlayRecorder)(nil)

func (r *InMemoryPlayRecorder) RecordPlays(ctx context.Context, plays []gameDomain.PlayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.plays = append(r.plays, plays...)
	return nil
}

func (r *InMemoryPlayRecorder) Plays() []gameDomain.PlayRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gameDomain.PlayRecord(nil), r.plays...)
}

// PublishedEvent registra una llamada a Publish.
type PublishedEvent struct {
	EventType string
	SubjectID string
	ActorID   string
	Data      map[string]interface{}
}

// RecordingPublisher implementa EventPublisher guardando las llamadas.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

var _ gameDomain.EventPublisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) Publish(ctx context.Context, eventType, subjectID, actorID string, data map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{EventType: eventType, SubjectID: subjectID, ActorID: actorID, Data: data})
}

func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

func sortGameCounts(counts []gameDomain.GameCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].GameID < counts[j].GameID
	})
}
