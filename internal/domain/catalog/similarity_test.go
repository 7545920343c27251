package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T, name string, price int64) Product {
	t.Helper()
	p, err := NewProduct(name, decimal.NewFromInt(price))
	require.NoError(t, err)
	return *p
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("roti coklat", "roti coklat"))
	})

	t.Run("single edit on short string", func(t *testing.T) {
		// "roti" vs "rota": distance 1, maxLen 4
		assert.InDelta(t, 0.75, Similarity("roti", "rota"), 0.0001)
	})

	t.Run("disjoint strings score near zero", func(t *testing.T) {
		assert.Less(t, Similarity("xyz", "roti coklat"), 0.2)
	})

	t.Run("empty strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("", ""))
	})
}

func TestFindSimilarProducts(t *testing.T) {
	products := []Product{
		mustProduct(t, "Kue Manis Coklat", 15000),
		mustProduct(t, "Kue Manis Keju", 17000),
		mustProduct(t, "Roti Tawar", 12000),
	}

	t.Run("substring mention boosts both kue manis variants", func(t *testing.T) {
		matches := FindSimilarProducts("kue manis 2", products, DefaultSimilarityThreshold)

		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Product.Name)
		}
		assert.Contains(t, names, "Kue Manis Coklat")
		assert.Contains(t, names, "Kue Manis Keju")
		assert.NotContains(t, names, "Roti Tawar")
	})

	t.Run("shared whole word reaches boost floor", func(t *testing.T) {
		matches := FindSimilarProducts("mau pesan kue", products, DefaultSimilarityThreshold)
		require.NotEmpty(t, matches)
		for _, m := range matches {
			assert.GreaterOrEqual(t, m.Score, 0.5)
		}
	})

	t.Run("exact name scores highest", func(t *testing.T) {
		matches := FindSimilarProducts("roti tawar", products, DefaultSimilarityThreshold)
		require.NotEmpty(t, matches)
		assert.Equal(t, "Roti Tawar", matches[0].Product.Name)
	})

	t.Run("results sorted descending by score", func(t *testing.T) {
		matches := FindSimilarProducts("kue manis coklat", products, DefaultSimilarityThreshold)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("empty text returns nothing", func(t *testing.T) {
		assert.Empty(t, FindSimilarProducts("   ", products, DefaultSimilarityThreshold))
	})

	t.Run("zero threshold falls back to default", func(t *testing.T) {
		matches := FindSimilarProducts("kue manis", products, 0)
		for _, m := range matches {
			assert.GreaterOrEqual(t, m.Score, DefaultSimilarityThreshold)
		}
	})
}

func TestFilterByLiteralMention(t *testing.T) {
	products := []Product{
		mustProduct(t, "Kue Manis Coklat", 15000),
		mustProduct(t, "Kue Manis Keju", 17000),
		mustProduct(t, "Roti Tawar", 12000),
	}
	matches := []ProductMatch{
		{Product: products[0], Score: 0.6},
		{Product: products[1], Score: 0.55},
		{Product: products[2], Score: 0.4},
	}

	t.Run("keeps only names containing the phrase", func(t *testing.T) {
		filtered := FilterByLiteralMention("kue manis", matches)
		require.Len(t, filtered, 2)
		assert.Equal(t, "Kue Manis Coklat", filtered[0].Product.Name)
		assert.Equal(t, "Kue Manis Keju", filtered[1].Product.Name)
	})

	t.Run("single containing name falls back to the full list", func(t *testing.T) {
		// ambiguity is judged against every plausible candidate, so a lone
		// literal hit never silently discards the rest
		filtered := FilterByLiteralMention("keju", matches)
		assert.Len(t, filtered, len(matches))
	})

	t.Run("falls back to unfiltered list when nothing contains the phrase", func(t *testing.T) {
		filtered := FilterByLiteralMention("bolu pandan", matches)
		assert.Len(t, filtered, len(matches))
	})

	t.Run("empty mention returns input unchanged", func(t *testing.T) {
		assert.Len(t, FilterByLiteralMention("  ", matches), len(matches))
	})
}

func TestFindByExactName(t *testing.T) {
	products := []Product{
		mustProduct(t, "Roti Tawar", 12000),
		mustProduct(t, "Kue Manis Keju", 17000),
	}

	t.Run("matches case-insensitively", func(t *testing.T) {
		p := FindByExactName(products, "roti tawar")
		require.NotNil(t, p)
		assert.Equal(t, "Roti Tawar", p.Name)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		p := FindByExactName(products, "  KUE MANIS KEJU ")
		require.NotNil(t, p)
	})

	t.Run("returns nil for partial names", func(t *testing.T) {
		assert.Nil(t, FindByExactName(products, "kue manis"))
	})
}
