package mongodb

import (
	"context"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	sharedMongo "github.com/davicafu/gamehub/internal/shared/infra/platform/db/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GameSearchAtlas implementa GameSearcher con Atlas Search sobre la colección games.
type GameSearchAtlas struct {
	gamesColl *mongo.Collection
	index     string
}

func NewGameSearchAtlas(db *mongo.Database, index string) *GameSearchAtlas {
	return &GameSearchAtlas{gamesColl: db.Collection(sharedMongo.GamesCollection), index: index}
}

func (s *GameSearchAtlas) Search(ctx context.Context, q gameDomain.SearchQuery) (gameDomain.SearchResult, error) {
	q = q.Normalize()
	res := gameDomain.SearchResult{Page: q.Page, PageSize: q.PageSize}

	// Sin texto ni categoría no hay nada que puntuar: listado ordenado por nombre.
	if q.Text == "" && q.Category == "" {
		total, err := s.gamesColl.CountDocuments(ctx, bson.M{})
		if err != nil {
			return res, err
		}
		opts := options.Find().
			SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
			SetSkip(int64(q.Skip())).
			SetLimit(int64(q.PageSize))
		cursor, err := s.gamesColl.Find(ctx, bson.M{}, opts)
		if err != nil {
			return res, err
		}
		res.Items, err = decodeGames(ctx, cursor)
		res.Total = total
		return res, err
	}

	cursor, err := s.gamesColl.Aggregate(ctx, searchPipeline(s.index, q))
	if err != nil {
		return res, err
	}
	defer cursor.Close(ctx)

	var page []struct {
		Items []mongoGame `bson:"items"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &page); err != nil {
		return res, err
	}
	if len(page) == 0 {
		return res, nil
	}
	for i := range page[0].Items {
		res.Items = append(res.Items, fromMongoGame(&page[0].Items[i]))
	}
	if len(page[0].Total) > 0 {
		res.Total = page[0].Total[0].N
	}
	return res, nil
}

func (s *GameSearchAtlas) MoreLikeThis(ctx context.Context, seeds []gameDomain.Game, exclude []string, limit int) ([]gameDomain.Game, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	cursor, err := s.gamesColl.Aggregate(ctx, moreLikeThisPipeline(s.index, seeds, exclude, limit))
	if err != nil {
		return nil, err
	}
	return decodeGames(ctx, cursor)
}

// searchPipeline: texto con boosts name×3, category×2, description×1; categoría como filtro.
func searchPipeline(index string, q gameDomain.SearchQuery) mongo.Pipeline {
	compound := bson.M{}
	if q.Text != "" {
		compound["should"] = bson.A{
			textClause(q.Text, "name", 3),
			textClause(q.Text, "category", 2),
			textClause(q.Text, "description", 1),
		}
		compound["minimumShouldMatch"] = 1
	}
	if q.Category != "" {
		compound["filter"] = bson.A{bson.M{"text": bson.M{"query": q.Category, "path": "category"}}}
	}

	return mongo.Pipeline{
		{{Key: "$search", Value: bson.M{"index": index, "compound": compound}}},
		{{Key: "$addFields", Value: bson.M{"score": bson.M{"$meta": "searchScore"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$facet", Value: bson.M{
			"items": bson.A{bson.M{"$skip": q.Skip()}, bson.M{"$limit": q.PageSize}},
			"total": bson.A{bson.M{"$count": "n"}},
		}}},
	}
}

func textClause(query, path string, boost int) bson.M {
	return bson.M{"text": bson.M{
		"query": query,
		"path":  path,
		"score": bson.M{"boost": bson.M{"value": boost}},
	}}
}

// moreLikeThisPipeline siembra con los campos de texto de los juegos comprados.
func moreLikeThisPipeline(index string, seeds []gameDomain.Game, exclude []string, limit int) mongo.Pipeline {
	like := make(bson.A, 0, len(seeds))
	for _, g := range seeds {
		like = append(like, bson.M{"name": g.Name, "description": g.Description, "category": g.Category})
	}
	if exclude == nil {
		exclude = []string{}
	}

	return mongo.Pipeline{
		{{Key: "$search", Value: bson.M{"index": index, "moreLikeThis": bson.M{"like": like}}}},
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$nin": exclude}}}},
		{{Key: "$limit", Value: limit}},
	}
}

var _ gameDomain.GameSearcher = (*GameSearchAtlas)(nil)
