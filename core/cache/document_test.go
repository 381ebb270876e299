package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/rtftree/core/rtf"
)

func TestDigest(t *testing.T) {
	a := Digest([]byte(`{\rtf1 a}`))
	b := Digest([]byte(`{\rtf1 b}`))

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Digest([]byte(`{\rtf1 a}`)))
}

func TestDocumentCache_Load(t *testing.T) {
	c := NewDefaultDocumentCache()
	input := []byte(`{\rtf1\ansi {\b hello} world}`)

	first, cached, err := c.Load(input)
	require.NoError(t, err)
	assert.False(t, cached, "first Load should decode")

	second, cached, err := c.Load(input)
	require.NoError(t, err)
	assert.True(t, cached, "second Load should hit the cache")
	assert.Same(t, first, second)

	doc, ok := c.Get(Digest(input))
	require.True(t, ok)
	assert.Same(t, first, doc)
	assert.Equal(t, "hello world", doc.Paragraphs()[0].Text())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(len(input)), stats.TotalBytes)
}

func TestDocumentCache_FatalNotCached(t *testing.T) {
	c := NewDefaultDocumentCache()
	input := []byte(`{\rtf1{\colortbl;oops;}}`)

	for i := 0; i < 2; i++ {
		doc, err := c.Parse(input)
		assert.Nil(t, doc)
		var fe *rtf.FatalError
		require.ErrorAs(t, err, &fe)
	}
	assert.Equal(t, 0, c.Len())
}

func TestDocumentCache_EvictionTracksBytes(t *testing.T) {
	var evicted []string
	c := NewDocumentCache(Config{
		MaxSize: 1,
		OnEvict: func(key, _ interface{}) { evicted = append(evicted, key.(string)) },
	}, rtf.DefaultConfig())

	a := []byte(`{\rtf1 first}`)
	b := []byte(`{\rtf1 second document}`)
	_, err := c.Parse(a)
	require.NoError(t, err)
	_, err = c.Parse(b)
	require.NoError(t, err)

	assert.Equal(t, []string{Digest(a)}, evicted)
	assert.Equal(t, int64(len(b)), c.Stats().TotalBytes)

	c.Remove(Digest(b))
	assert.Zero(t, c.Stats().TotalBytes)
}

func TestDocumentCache_Clear(t *testing.T) {
	c := NewDefaultDocumentCache()
	_, err := c.Parse([]byte(`{\rtf1 x}`))
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Zero(t, c.Stats().TotalBytes)
}

func TestDocumentCache_Concurrency(t *testing.T) {
	c := NewDefaultDocumentCache()
	inputs := [][]byte{
		[]byte(`{\rtf1 one}`),
		[]byte(`{\rtf1 two}`),
		[]byte(`{\rtf1 three}`),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := c.Parse(inputs[(i+j)%len(inputs)])
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(inputs), c.Len())
}
