package mongodb

import (
	"testing"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSearchPipeline_BoostsAndPaging(t *testing.T) {
	p := searchPipeline("default", gameDomain.SearchQuery{Text: "zelda", Category: "adventure", Page: 2, PageSize: 5})

	require.Len(t, p, 4)
	search := p[0][0].Value.(bson.M)
	compound := search["compound"].(bson.M)
	should := compound["should"].(bson.A)
	require.Len(t, should, 3)
	assert.Equal(t, "name", should[0].(bson.M)["text"].(bson.M)["path"])
	assert.Contains(t, compound, "filter")

	facet := p[3][0].Value.(bson.M)
	items := facet["items"].(bson.A)
	assert.Equal(t, bson.M{"$skip": 5}, items[0])
	assert.Equal(t, bson.M{"$limit": 5}, items[1])
}

func TestMoreLikeThisPipeline_ExcludesPurchased(t *testing.T) {
	seeds := []gameDomain.Game{{ID: "g-1", Name: "Hades", Category: "roguelike"}}

	p := moreLikeThisPipeline("default", seeds, []string{"g-1", "g-2"}, 7)

	require.Len(t, p, 3)
	match := p[1][0].Value.(bson.M)
	assert.Equal(t, bson.M{"$nin": []string{"g-1", "g-2"}}, match["_id"])
	assert.Equal(t, 7, p[2][0].Value)
}
