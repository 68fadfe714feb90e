package mocks

import (
	"context"
	"sort"
	"sync"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
)

// InMemoryPurchaseRepo guarda compras y su outbox; también responde al historial.
type InMemoryPurchaseRepo struct {
	mu        sync.Mutex
	purchases []purchaseDomain.Purchase
	Outbox    []sharedDomain.OutboxEvent
	Err       error
}

var (
	_ purchaseDomain.PurchaseRepository = (*InMemoryPurchaseRepo)(nil)
	_ gameDomain.PurchaseHistory        = (*InMemoryPurchaseRepo)(nil)
)

func NewInMemoryPurchaseRepo(purchases ...purchaseDomain.Purchase) *InMemoryPurchaseRepo {
	return &InMemoryPurchaseRepo{purchases: purchases}
}

func (r *InMemoryPurchaseRepo) Create(ctx context.Context, p *purchaseDomain.Purchase, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.purchases = append(r.purchases, *p)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryPurchaseRepo) GetByID(ctx context.Context, id string) (*purchaseDomain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, purchaseDomain.ErrPurchaseNotFound
}

func (r *InMemoryPurchaseRepo) RecentPaidGameIDs(ctx context.Context, userID string, n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var paid []purchaseDomain.Purchase
	for _, p := range r.purchases {
		if p.UserID == userID && p.Status == purchaseDomain.PurchasePaid {
			paid = append(paid, p)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool { return paid[i].CreatedAt.After(paid[j].CreatedAt) })
	if len(paid) > n {
		paid = paid[:n]
	}
	ids := make([]string, 0, len(paid))
	for _, p := range paid {
		ids = append(ids, p.GameID)
	}
	return ids, nil
}

func (r *InMemoryPurchaseRepo) PurchasedGameIDs(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	seen := map[string]bool{}
	var ids []string
	for _, p := range r.purchases {
		if p.UserID == userID && !seen[p.GameID] {
			seen[p.GameID] = true
			ids = append(ids, p.GameID)
		}
	}
	return ids, nil
}

func (r *InMemoryPurchaseRepo) TopPaidGames(ctx context.Context, limit int) ([]gameDomain.GameCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	counts := map[string]int64{}
	for _, p := range r.purchases {
		if p.Status == purchaseDomain.PurchasePaid {
			counts[p.GameID]++
		}
	}
	out := make([]gameDomain.GameCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, gameDomain.GameCount{GameID: id, Count: c})
	}
	sortGameCounts(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
