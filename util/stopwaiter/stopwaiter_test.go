// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package stopwaiter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/offchainlabs/bridgemint/util/testhelpers"
)

type TestStruct struct{}

func TestCallIterativelyStopsOnStop(t *testing.T) {
	sw := StopWaiter{}
	sw.Start(context.Background(), &TestStruct{})
	var calls atomic.Int64
	sw.CallIteratively(func(ctx context.Context) time.Duration {
		calls.Add(1)
		return time.Millisecond
	})
	for calls.Load() < 3 {
		time.Sleep(time.Millisecond)
	}
	sw.StopAndWait()
	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != after {
		testhelpers.FailImpl(t, "iteration continued after StopAndWait")
	}
	if sw.name != "stopwaiter.TestStruct" {
		testhelpers.FailImpl(t, "unexpected name", sw.name)
	}
}

func TestStopBeforeStart(t *testing.T) {
	sw := StopWaiterSafe{}
	sw.StopAndWait()
	if err := sw.LaunchThread(func(context.Context) {}); err == nil {
		testhelpers.FailImpl(t, "launched a thread before start")
	}
	testhelpers.RequireImpl(t, sw.Start(context.Background(), &TestStruct{}))
	ctx, err := sw.GetContext()
	testhelpers.RequireImpl(t, err)
	if ctx.Err() == nil {
		testhelpers.FailImpl(t, "start after stop should cancel immediately")
	}
	if err := sw.Start(context.Background(), &TestStruct{}); err == nil {
		testhelpers.FailImpl(t, "start after start succeeded")
	}
}
