// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/voxweb/voxweb/api/schemas"
)

// FakePage is a configurable schemas.Page for tests. Each method delegates to
// the corresponding function field when set and otherwise returns a zero
// value, so tests only wire the calls they care about. Call counts are
// recorded for every method.
type FakePage struct {
	mu sync.Mutex

	CollectCandidatesFn    func(ctx context.Context) ([]schemas.RawCandidate, error)
	ResolveQueryFn         func(ctx context.Context, q schemas.ElementQuery) ([]schemas.Candidate, error)
	PerformClickFn         func(ctx context.Context, ref schemas.PageRef) error
	PerformTypeFn          func(ctx context.Context, ref schemas.PageRef, value string) error
	PerformSetSelectFn     func(ctx context.Context, ref schemas.PageRef, index int) error
	PerformClearFn         func(ctx context.Context, ref schemas.PageRef) error
	OuterHTMLFn            func(ctx context.Context, ref schemas.PageRef) (string, error)
	ObserveStateFn         func(ctx context.Context) (schemas.PageState, error)
	InstallMutationWatchFn func(ctx context.Context) error
	ConsumeMutationFlagFn  func(ctx context.Context) (bool, error)

	Calls map[string]int
}

func (f *FakePage) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = map[string]int{}
	}
	f.Calls[method]++
}

// CallCount returns how many times the named method ran.
func (f *FakePage) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *FakePage) CollectCandidates(ctx context.Context) ([]schemas.RawCandidate, error) {
	f.record("CollectCandidates")
	if f.CollectCandidatesFn != nil {
		return f.CollectCandidatesFn(ctx)
	}
	return nil, nil
}

func (f *FakePage) ResolveQuery(ctx context.Context, q schemas.ElementQuery) ([]schemas.Candidate, error) {
	f.record("ResolveQuery")
	if f.ResolveQueryFn != nil {
		return f.ResolveQueryFn(ctx, q)
	}
	return nil, nil
}

func (f *FakePage) PerformClick(ctx context.Context, ref schemas.PageRef) error {
	f.record("PerformClick")
	if f.PerformClickFn != nil {
		return f.PerformClickFn(ctx, ref)
	}
	return nil
}

func (f *FakePage) PerformType(ctx context.Context, ref schemas.PageRef, value string) error {
	f.record("PerformType")
	if f.PerformTypeFn != nil {
		return f.PerformTypeFn(ctx, ref, value)
	}
	return nil
}

func (f *FakePage) PerformSetSelect(ctx context.Context, ref schemas.PageRef, index int) error {
	f.record("PerformSetSelect")
	if f.PerformSetSelectFn != nil {
		return f.PerformSetSelectFn(ctx, ref, index)
	}
	return nil
}

func (f *FakePage) PerformClear(ctx context.Context, ref schemas.PageRef) error {
	f.record("PerformClear")
	if f.PerformClearFn != nil {
		return f.PerformClearFn(ctx, ref)
	}
	return nil
}

func (f *FakePage) OuterHTML(ctx context.Context, ref schemas.PageRef) (string, error) {
	f.record("OuterHTML")
	if f.OuterHTMLFn != nil {
		return f.OuterHTMLFn(ctx, ref)
	}
	return "", nil
}

func (f *FakePage) ObserveState(ctx context.Context) (schemas.PageState, error) {
	f.record("ObserveState")
	if f.ObserveStateFn != nil {
		return f.ObserveStateFn(ctx)
	}
	return schemas.PageState{}, nil
}

func (f *FakePage) InstallMutationWatch(ctx context.Context) error {
	f.record("InstallMutationWatch")
	if f.InstallMutationWatchFn != nil {
		return f.InstallMutationWatchFn(ctx)
	}
	return nil
}

func (f *FakePage) ConsumeMutationFlag(ctx context.Context) (bool, error) {
	f.record("ConsumeMutationFlag")
	if f.ConsumeMutationFlagFn != nil {
		return f.ConsumeMutationFlagFn(ctx)
	}
	return false, nil
}

// FakeLLMClient is a configurable schemas.LLMClient. Replies are returned in
// order; when the list runs out the last reply repeats.
type FakeLLMClient struct {
	mu         sync.Mutex
	Replies    []string
	Err        error
	Requests   []schemas.GenerationRequest
	GenerateFn func(ctx context.Context, req schemas.GenerationRequest) (string, error)
}

func (f *FakeLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.GenerateFn != nil {
		return f.GenerateFn(ctx, req)
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", nil
	}
	idx := len(f.Requests) - 1
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return f.Replies[idx], nil
}

func (f *FakeLLMClient) Close() error { return nil }

// RequestCount returns how many generation calls were made.
func (f *FakeLLMClient) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}
