package twin_test

import (
	"sync"
	"testing"
	"time"

	"twinline/internal/twin"
)

func TestEngineCurrentCopies(t *testing.T) {
	e := twin.NewEngine()
	e.Now = func() time.Time { return fixedTime }
	if _, ok := e.Current(); ok {
		t.Fatalf("no state expected before first build")
	}
	ctx := baseContext()
	ctx.Capabilities.FocusAreas = []string{"analytics"}
	built := e.BuildState(ctx, twin.BuildOptions{Label: "current"})
	if !built.Timestamp.Equal(fixedTime) {
		t.Fatalf("timestamp should come from engine clock: %v", built.Timestamp)
	}
	built.Capabilities.FocusAreas[0] = "mutated"

	got, ok := e.Current()
	if !ok {
		t.Fatalf("state missing after build")
	}
	if got.Capabilities.FocusAreas[0] != "analytics" {
		t.Fatalf("stored state aliased the returned copy")
	}
	got.Capabilities.FocusAreas[0] = "again"
	again, _ := e.Current()
	if again.Capabilities.FocusAreas[0] != "analytics" {
		t.Fatalf("Current returned shared memory")
	}
}

func TestEngineSimulateUsesClock(t *testing.T) {
	e := twin.NewEngine()
	e.Now = func() time.Time { return fixedTime }
	cur := e.BuildState(baseContext(), twin.BuildOptions{})
	sim := e.Simulate(cur, 3, nil)
	if !sim.FutureTimestamp.Equal(fixedTime.AddDate(0, 3, 0)) {
		t.Fatalf("future timestamp %v", sim.FutureTimestamp)
	}
	plan, err := e.Optimize(cur, twin.Goal{Type: twin.GoalMarginImprovement, HorizonMonths: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Actions) != 1 || plan.Actions[0].EndMonth != 9 {
		t.Fatalf("margin plan: %+v", plan.Actions)
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	e := twin.NewEngine()
	e.Now = func() time.Time { return fixedTime }
	e.BuildState(baseContext(), twin.BuildOptions{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				e.BuildState(baseContext(), twin.BuildOptions{})
				return
			}
			if s, ok := e.Current(); ok {
				e.Simulate(s, 12, []twin.Intervention{{Type: "investment", Target: "data", Intensity: 1}})
			}
		}(i)
	}
	wg.Wait()
	if _, ok := e.Current(); !ok {
		t.Fatalf("state lost")
	}
}
