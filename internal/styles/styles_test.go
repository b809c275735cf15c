package styles

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcomponents/lucid/internal/dom"
)

func newDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseDocument(`<!DOCTYPE html><html><head></head><body></body></html>`)
	require.NoError(t, err)
	return doc
}

func TestApplyInjectsOnce(t *testing.T) {
	doc := newDoc(t)
	inj := NewInjector(doc)

	assert.True(t, inj.Apply("lc-card", ".card{display:block}"))
	assert.True(t, inj.Injected("lc-card"))

	// Later instances of the same type are no-ops.
	for i := 0; i < 5; i++ {
		assert.False(t, inj.Apply("lc-card", ".card{display:block}"))
	}

	assert.Equal(t, 1, inj.Count("lc-card"))
}

func TestApplyDistinctIdentifiers(t *testing.T) {
	doc := newDoc(t)
	inj := NewInjector(doc)

	assert.True(t, inj.Apply("lc-card", ".card{}"))
	assert.True(t, inj.Apply("lc-header", ".header{}"))

	assert.Equal(t, 1, inj.Count("lc-card"))
	assert.Equal(t, 1, inj.Count("lc-header"))
}

func TestApplyRejectsEmptyInputs(t *testing.T) {
	doc := newDoc(t)
	inj := NewInjector(doc)

	assert.False(t, inj.Apply("", ".x{}"))
	assert.False(t, inj.Apply("lc-x", ""))
	assert.False(t, inj.Injected("lc-x"))
}

func TestApplyConcurrent(t *testing.T) {
	doc := newDoc(t)
	inj := NewInjector(doc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inj.Apply("lc-dialog", ".dialog{}")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inj.Count("lc-dialog"))
}
