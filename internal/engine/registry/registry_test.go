package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.uber.org/mock/gomock"
)

func nopFactory(domain.ConfigRef, domain.BuildCommand) (ports.Builder, error) {
	return nil, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(registry.Registration{ID: "b", Factory: nopFactory}))
	require.NoError(t, r.Register(registry.Registration{ID: "a", Factory: nopFactory, CallOnEmptyDelta: true}))

	reg, err := r.Lookup("a")
	require.NoError(t, err)
	assert.True(t, reg.CallOnEmptyDelta)
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	err = r.Register(registry.Registration{ID: "a", Factory: nopFactory})
	require.ErrorIs(t, err, domain.ErrBuilderAlreadyRegistered)

	_, err = r.Lookup("missing")
	require.ErrorIs(t, err, domain.ErrBuilderNotFound)

	err = r.Register(registry.Registration{ID: "c"})
	require.ErrorIs(t, err, domain.ErrInvalidRegistration)
}

func TestCatalog_Registry(t *testing.T) {
	ctrl := gomock.NewController(t)
	kind := mocks.NewMockBuilderKind(ctrl)
	kind.EXPECT().Name().Return("exec").AnyTimes()

	c := registry.NewCatalog(kind)

	t.Run("defaults to exec", func(t *testing.T) {
		r, err := c.Registry(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{registry.DefaultBuilder}, r.IDs())
	})

	t.Run("binds declared identifiers", func(t *testing.T) {
		r, err := c.Registry([]domain.BuilderSpec{
			{ID: "compile", Kind: "exec"},
			{ID: "index", Kind: "exec", CallOnEmptyDelta: true},
		})
		require.NoError(t, err)

		reg, err := r.Lookup("index")
		require.NoError(t, err)
		assert.True(t, reg.CallOnEmptyDelta)

		builder := mocks.NewMockBuilder(ctrl)
		target := domain.NewConfigRef("app", "default")
		cmd := domain.BuildCommand{Builder: "index"}
		kind.EXPECT().New(target, cmd).Return(builder, nil)

		got, err := reg.Factory(target, cmd)
		require.NoError(t, err)
		assert.Same(t, builder, got)
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		_, err := c.Registry([]domain.BuilderSpec{{ID: "x", Kind: "docker"}})
		require.ErrorIs(t, err, domain.ErrBuilderKindNotFound)
	})
}
