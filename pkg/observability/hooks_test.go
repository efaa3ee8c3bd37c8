package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolverHooks{}
	r.OnPassComplete(ctx, 1, 3, 2)
	r.OnInstallStart(ctx, "json", "1.0")
	r.OnInstallComplete(ctx, "json", "1.0", time.Second, nil)

	i := NoopIndexHooks{}
	i.OnIndexFetch(ctx, true, time.Second, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Resolver().(NoopResolverHooks); !ok {
		t.Error("Resolver() should return NoopResolverHooks by default")
	}
	if _, ok := Index().(NoopIndexHooks); !ok {
		t.Error("Index() should return NoopIndexHooks by default")
	}

	customResolver := &testResolverHooks{}
	SetResolverHooks(customResolver)
	if Resolver() != customResolver {
		t.Error("SetResolverHooks should set custom hooks")
	}

	customIndex := &testIndexHooks{}
	SetIndexHooks(customIndex)
	if Index() != customIndex {
		t.Error("SetIndexHooks should set custom hooks")
	}

	// nil leaves the current hooks in place
	SetResolverHooks(nil)
	if Resolver() != customResolver {
		t.Error("SetResolverHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Resolver().(NoopResolverHooks); !ok {
		t.Error("Reset should restore NoopResolverHooks")
	}
}

type testResolverHooks struct{ NoopResolverHooks }

type testIndexHooks struct{ NoopIndexHooks }
