package memtree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/memtree"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestTree_Snapshot(t *testing.T) {
	tree := memtree.New()
	p := domain.NewProject("app")

	before, err := tree.Snapshot(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Len())

	tree.Write(t.Context(), "app", "main.go", "package main")
	tree.Write(t.Context(), "lib", "lib.go", "package lib")

	after, err := tree.Snapshot(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, after.Paths())

	d := domain.Diff(domain.NewConfigRef("app", "default"), before, after)
	assert.Equal(t, []string{"main.go"}, d.Paths())

	tree.Write(t.Context(), "app", "main.go", "package main")
	same, err := tree.Snapshot(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, after.Fingerprint, same.Fingerprint)

	tree.Remove(t.Context(), "app", "main.go")
	empty, err := tree.Snapshot(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, before.Fingerprint, empty.Fingerprint)
}

func TestTree_OnChangeCarriesContext(t *testing.T) {
	tree := memtree.New()

	var got []domain.InvocationID
	tree.OnChange(func(ctx context.Context) {
		got = append(got, domain.InvocationFrom(ctx))
	})

	tree.Write(t.Context(), "app", "a", "1")
	tree.Write(domain.WithInvocation(t.Context(), 42), "app", "a", "2")

	assert.Equal(t, []domain.InvocationID{0, 42}, got)
}
