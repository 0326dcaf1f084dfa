package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks

// Builder is the capability a build command resolves to.
type Builder interface {
	// Build runs the builder for one configuration. It returns the configurations
	// whose deltas it wants to observe on the next build.
	Build(ctx context.Context, req BuildRequest) ([]domain.ConfigRef, error)
	// Clean discards the builder's output for one configuration.
	Clean(ctx context.Context, req BuildRequest) error
	// Rule returns the scheduling rule the builder needs for the given trigger.
	// A nil rule conflicts only with the whole-workspace rule.
	Rule(trigger domain.TriggerKind, args map[string]string) domain.SchedulingRule
}

// Session gives a running builder access to the invocation it belongs to.
type Session interface {
	// RequestRebuild asks for another pass over the build order once the current one finishes.
	RequestRebuild()
	// ForgetLastBuiltState discards the builder's baseline; the next build is full.
	ForgetLastBuiltState()
	// Delta returns the changes of ref since the builder last observed it.
	// Missing or closed projects yield an empty delta.
	Delta(ctx context.Context, ref domain.ConfigRef) *domain.Delta
}

// BuildRequest carries everything a builder needs for one unit of work.
type BuildRequest struct {
	// Config is the resolved configuration being built.
	Config domain.ConfigRef
	// Trigger is the effective trigger after baseline upgrades.
	Trigger domain.TriggerKind
	// RequestedTrigger is the trigger of the pass before upgrades.
	RequestedTrigger domain.TriggerKind
	// Args are the command's arguments.
	Args map[string]string
	// Delta holds the configuration's changes since the builder's baseline.
	// Full builds diff against the empty tree. It is nil for clean.
	Delta *domain.Delta
	// Context is the configuration's position within the build order.
	Context domain.BuildContext
	// Project is a copy of the project description.
	Project *domain.Project
	// Session links the builder to the running invocation.
	Session Session
	// Output receives the builder's log output.
	Output io.Writer
}

// BuilderFactory instantiates a builder for one build command of a configuration.
type BuilderFactory func(target domain.ConfigRef, cmd domain.BuildCommand) (Builder, error)

// BuilderKind is a named family of builders that workspace configuration can bind identifiers to.
type BuilderKind interface {
	// Name returns the kind name used in configuration.
	Name() string
	// New instantiates a builder.
	New(target domain.ConfigRef, cmd domain.BuildCommand) (Builder, error)
}
