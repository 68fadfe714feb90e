package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
)

// GameSearchElastic implementa GameSearcher contra un índice de Elasticsearch
// cuyos documentos usan el id del juego como _id.
type GameSearchElastic struct {
	client *elasticsearch.Client
	index  string
}

// NewGameSearchElastic crea el cliente para url.
func NewGameSearchElastic(url, index string) (*GameSearchElastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &GameSearchElastic{client: client, index: index}, nil
}

type esGame struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string `json:"_id"`
			Source esGame `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *GameSearchElastic) Search(ctx context.Context, q gameDomain.SearchQuery) (gameDomain.SearchResult, error) {
	q = q.Normalize()
	resp, err := s.do(ctx, searchQuery(q))
	if err != nil {
		return gameDomain.SearchResult{}, err
	}
	return gameDomain.SearchResult{
		Items:    toGames(resp),
		Total:    resp.Hits.Total.Value,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

func (s *GameSearchElastic) MoreLikeThis(ctx context.Context, seeds []gameDomain.Game, exclude []string, limit int) ([]gameDomain.Game, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	resp, err := s.do(ctx, moreLikeThisQuery(s.index, seeds, exclude, limit))
	if err != nil {
		return nil, err
	}
	return toGames(resp), nil
}

func (s *GameSearchElastic) do(ctx context.Context, query map[string]interface{}) (*esSearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Elasticsearch search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to parse Elasticsearch error response: %w", err)
		}
		return nil, fmt.Errorf("elasticsearch search error: %s: %v", res.Status(), e)
	}

	var out esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse Elasticsearch search response: %w", err)
	}
	return &out, nil
}

// searchQuery: multi_match con name^3, category^2, description; categoría como filtro.
func searchQuery(q gameDomain.SearchQuery) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	if q.Text != "" {
		boolQuery["must"] = []interface{}{
			map[string]interface{}{"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"name^3", "category^2", "description"},
			}},
		}
	}
	if q.Category != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"match": map[string]interface{}{"category": q.Category}},
		}
	}

	return map[string]interface{}{
		"from":  q.Skip(),
		"size":  q.PageSize,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"price": "asc"}},
	}
}

// moreLikeThisQuery usa los propios documentos semilla (por _id) y excluye los comprados.
func moreLikeThisQuery(index string, seeds []gameDomain.Game, exclude []string, limit int) map[string]interface{} {
	like := make([]interface{}, 0, len(seeds))
	for _, g := range seeds {
		like = append(like, map[string]interface{}{"_index": index, "_id": g.ID})
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{"more_like_this": map[string]interface{}{
				"fields":          []string{"name", "category", "description"},
				"like":            like,
				"min_term_freq":   1,
				"min_doc_freq":    1,
				"max_query_terms": 25,
			}},
		},
	}
	if len(exclude) > 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"ids": map[string]interface{}{"values": exclude}},
		}
	}

	return map[string]interface{}{
		"size":  limit,
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

func toGames(resp *esSearchResponse) []gameDomain.Game {
	games := make([]gameDomain.Game, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		id := h.Source.ID
		if id == "" {
			id = h.ID
		}
		games = append(games, gameDomain.Game{
			ID:          id,
			Name:        h.Source.Name,
			Description: h.Source.Description,
			Category:    h.Source.Category,
			Price:       h.Source.Price,
		})
	}
	return games
}

var _ gameDomain.GameSearcher = (*GameSearchElastic)(nil)
