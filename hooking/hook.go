// Package hooking lets observers attach to the splitter without the splitter
// knowing what they do with what they see.
package hooking

// HookPos names the place a hook is invoked from.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	if p == nil {
		return "<nil>"
	}

	return p.Name
}

// HookCtx is what a hook receives when invoked.
type HookCtx struct {
	// Domain is the object raising the hook.
	Domain Hookable

	// Pos tells where in the domain the hook fires.
	Pos *HookPos

	// Item is the subject of the hook, such as an issued command. Each
	// position documents the type it carries.
	Item any
}

// ItemAs returns the item of ctx as a T. It returns false when the item has
// another type, so a hook never panics on a position it misreads.
func ItemAs[T any](ctx HookCtx) (T, bool) {
	item, ok := ctx.Item.(T)
	return item, ok
}

// Hookable is an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook. Hooks are registered before the domain
	// starts running and are never removed.
	AcceptHook(hook Hook)

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is invoked by a hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// OnlyAt returns a hook that forwards to hook at the given positions and
// ignores every other one.
func OnlyAt(hook Hook, positions ...*HookPos) Hook {
	return &filteredHook{hook: hook, positions: positions}
}

type filteredHook struct {
	hook      Hook
	positions []*HookPos
}

func (f *filteredHook) Func(ctx HookCtx) {
	for _, p := range f.positions {
		if p == ctx.Pos {
			f.hook.Func(ctx)
			return
		}
	}
}

// A HookableBase implements Hookable for embedding.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase with no hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// AcceptHook registers a hook. A nil hook is ignored.
func (h *HookableBase) AcceptHook(hook Hook) {
	if hook == nil {
		return
	}

	h.hooks = append(h.hooks, hook)
}

// Hooks returns a copy of the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return append([]Hook(nil), h.hooks...)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook calls every registered hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
