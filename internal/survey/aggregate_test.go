package survey

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithColumn(t *testing.T, column string, values ...string) *Table {
	t.Helper()
	raw := RawTable{{"Nome", "", column}}
	for i, v := range values {
		raw = append(raw, []string{string(rune('a' + i%26)), "", v})
	}
	table, err := Clean(raw)
	require.NoError(t, err)
	return table
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func TestAggregate(t *testing.T) {
	table := tableWithColumn(t, "Letra", "A", "A", "B")

	dist, err := Aggregate(table, "Letra", []string{"A", "B", "C"})
	require.NoError(t, err)

	assert.Equal(t, "Letra", dist.Column)
	assert.Equal(t, 3, dist.Total)
	require.Len(t, dist.Categories, 3)

	want := []CategoryCount{
		{Label: "A", Count: 2, Percentage: 66.7},
		{Label: "B", Count: 1, Percentage: 33.3},
		{Label: "C", Count: 0, Percentage: 0.0},
	}
	for i, w := range want {
		got := dist.Categories[i]
		assert.Equal(t, w.Label, got.Label)
		assert.Equal(t, w.Count, got.Count)
		assert.Equal(t, w.Percentage, round1(got.Percentage))
	}
}

func TestAggregate_NoData(t *testing.T) {
	table := tableWithColumn(t, "Faixa")

	dist, err := Aggregate(table, "Faixa", []string{"R$1.000 - R$2.000", "R$2.000 - R$3.000"})
	require.NoError(t, err)

	assert.True(t, dist.Empty())
	assert.Equal(t, 0, dist.MaxCount())
	for _, c := range dist.Categories {
		assert.Zero(t, c.Count)
		assert.Zero(t, c.Percentage)
		assert.False(t, math.IsNaN(c.Percentage))
	}
}

func TestAggregate_OnlyUnlistedValues(t *testing.T) {
	table := tableWithColumn(t, "Faixa", "Prefiro não dizer", "outro", "")

	dist, err := Aggregate(table, "Faixa", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 0, dist.Total)
	for _, c := range dist.Categories {
		assert.Zero(t, c.Percentage)
	}
}

func TestAggregate_UnlistedValuesExcludedFromTotal(t *testing.T) {
	table := tableWithColumn(t, "Faixa", "A", "free text", "B", "free text", "Z")

	dist, err := Aggregate(table, "Faixa", []string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, 2, dist.Total)
	labels := make([]string, 0, len(dist.Categories))
	for _, c := range dist.Categories {
		labels = append(labels, c.Label)
		assert.Equal(t, 50.0, c.Percentage)
	}
	assert.Equal(t, []string{"A", "B"}, labels)
}

func TestAggregate_OrderFollowsLabels(t *testing.T) {
	labels := []string{"R$1.000 - R$2.000", "R$2.000 - R$3.000", "R$3.000 - R$4.000", "R$4.000 - R$5.000"}

	// The most frequent value comes last in the data and last in the labels.
	values := []string{
		labels[3], labels[3], labels[3], labels[3],
		labels[0],
		labels[2], labels[2],
		labels[3],
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		rng.Shuffle(len(values), func(a, b int) { values[a], values[b] = values[b], values[a] })
		table := tableWithColumn(t, "Faixa", values...)

		dist, err := Aggregate(table, "Faixa", labels)
		require.NoError(t, err)

		for j, c := range dist.Categories {
			assert.Equal(t, labels[j], c.Label)
		}
		assert.Equal(t, []int{1, 0, 2, 5}, counts(dist))
	}
}

func TestAggregate_PercentagesSumTo100(t *testing.T) {
	labels := []string{"2018", "2019", "2020", "2021", "2022", "2023"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		n := 1 + rng.Intn(200)
		values := make([]string, n)
		for j := range values {
			// Roughly one in seven answers is not a listed year.
			k := rng.Intn(len(labels) + 1)
			if k == len(labels) {
				values[j] = "não sei"
				continue
			}
			values[j] = labels[k]
		}
		table := tableWithColumn(t, "Ano", values...)

		dist, err := Aggregate(table, "Ano", labels)
		require.NoError(t, err)

		sum := 0.0
		for _, c := range dist.Categories {
			sum += c.Percentage
		}
		if dist.Total > 0 {
			assert.InDelta(t, 100.0, sum, 1e-9)
		} else {
			assert.Zero(t, sum)
		}
	}
}

func TestAggregate_Errors(t *testing.T) {
	table := tableWithColumn(t, "Faixa", "A")

	t.Run("column not found", func(t *testing.T) {
		_, err := Aggregate(table, "Qual salário você ganha hoje", []string{"A"})
		var notFound *ColumnNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "Qual salário você ganha hoje", notFound.Column)
	})

	t.Run("duplicate label", func(t *testing.T) {
		_, err := Aggregate(table, "Faixa", []string{"A", "B", "A"})
		var labelErr *LabelError
		require.True(t, errors.As(err, &labelErr))
		assert.Equal(t, "A", labelErr.Label)
	})

	t.Run("no labels", func(t *testing.T) {
		dist, err := Aggregate(table, "Faixa", nil)
		require.NoError(t, err)
		assert.Empty(t, dist.Categories)
		assert.True(t, dist.Empty())
	})
}

func counts(d Distribution) []int {
	out := make([]int, len(d.Categories))
	for i, c := range d.Categories {
		out[i] = c.Count
	}
	return out
}
