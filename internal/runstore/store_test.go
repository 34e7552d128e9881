package runstore

import (
	"context"
	"errors"
	"math"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, "toy-train", 42, "smoke run")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated run ID")
	}
	if created.Steps != 0 {
		t.Fatalf("new run steps: got %d want 0", created.Steps)
	}

	got, err := s.GetRun(ctx, created.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Name != "toy-train" || got.Seed != 42 || got.Notes != "smoke run" {
		t.Fatalf("run mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created at: got %v want %v", got.CreatedAt, created.CreatedAt)
	}

	other, err := s.CreateRun(ctx, "toy-train", 42, "")
	if err != nil {
		t.Fatalf("create second run: %v", err)
	}
	if other.ID == created.ID {
		t.Fatal("run IDs should be unique")
	}
}

func TestCreateRunRejectsEmptyName(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	if _, err := s.CreateRun(context.Background(), "", 0, ""); err == nil {
		t.Fatal("empty name should fail")
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	if _, err := s.GetRun(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	want := make(map[string]bool)
	for _, name := range []string{"a", "b", "c"} {
		r, err := s.CreateRun(ctx, name, 0, "")
		if err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
		want[r.ID] = true
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("run count: got %d want 3", len(runs))
	}
	for _, r := range runs {
		if !want[r.ID] {
			t.Fatalf("unexpected run %q in listing", r.ID)
		}
	}
}

func TestAppendAndReadSeries(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "train", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	// Deliberately unordered: Series must sort by step.
	points := []Point{
		{Series: "loss", Step: 2, Value: 2.0},
		{Series: "loss", Step: 0, Value: 4.0},
		{Series: "loss", Step: 1, Value: 3.0},
		{Series: "kl", Step: 0, Value: 0.5},
		{Series: "kl", Step: 1, Value: 0.25},
	}
	if err := s.AppendPoints(ctx, run.ID, points); err != nil {
		t.Fatalf("append points: %v", err)
	}

	loss, err := s.Series(ctx, run.ID, "loss")
	if err != nil {
		t.Fatalf("read loss: %v", err)
	}
	wantLoss := []float64{4, 3, 2}
	if len(loss) != len(wantLoss) {
		t.Fatalf("loss length: got %d want %d", len(loss), len(wantLoss))
	}
	for i := range wantLoss {
		if loss[i] != wantLoss[i] {
			t.Fatalf("loss[%d]: got %g want %g", i, loss[i], wantLoss[i])
		}
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Steps != 3 {
		t.Fatalf("steps after append: got %d want 3", got.Steps)
	}

	infos, err := s.ListSeries(ctx, run.ID)
	if err != nil {
		t.Fatalf("list series: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("series count: got %d want 2", len(infos))
	}
	if infos[0].Name != "kl" || infos[0].Count != 2 {
		t.Fatalf("series[0]: got %+v", infos[0])
	}
	if infos[1].Name != "loss" || infos[1].Count != 3 {
		t.Fatalf("series[1]: got %+v", infos[1])
	}
}

func TestSeriesPreservesNonFiniteValues(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "diverged", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	points := []Point{
		{Series: "kl", Step: 0, Value: math.Inf(1)},
		{Series: "kl", Step: 1, Value: math.NaN()},
		{Series: "kl", Step: 2, Value: math.Inf(-1)},
		{Series: "kl", Step: 3, Value: 0.125},
	}
	if err := s.AppendPoints(ctx, run.ID, points); err != nil {
		t.Fatalf("append points: %v", err)
	}

	kl, err := s.Series(ctx, run.ID, "kl")
	if err != nil {
		t.Fatalf("read kl: %v", err)
	}
	if len(kl) != 4 {
		t.Fatalf("kl length: got %d want 4", len(kl))
	}
	if !math.IsInf(kl[0], 1) {
		t.Fatalf("kl[0]: got %g want +Inf", kl[0])
	}
	if !math.IsNaN(kl[1]) {
		t.Fatalf("kl[1]: got %g want NaN", kl[1])
	}
	if !math.IsInf(kl[2], -1) {
		t.Fatalf("kl[2]: got %g want -Inf", kl[2])
	}
	if kl[3] != 0.125 {
		t.Fatalf("kl[3]: got %g want 0.125", kl[3])
	}
}

func TestAppendOverwritesExistingStep(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "resume", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.AppendPoints(ctx, run.ID, []Point{{Series: "loss", Step: 0, Value: 1}}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.AppendPoints(ctx, run.ID, []Point{{Series: "loss", Step: 0, Value: 2}}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	loss, err := s.Series(ctx, run.ID, "loss")
	if err != nil {
		t.Fatalf("read loss: %v", err)
	}
	if len(loss) != 1 || loss[0] != 2 {
		t.Fatalf("loss: got %v want [2]", loss)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Steps != 1 {
		t.Fatalf("steps: got %d want 1", got.Steps)
	}
}

func TestAppendPointsValidation(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "bad", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	if err := s.AppendPoints(ctx, run.ID, []Point{{Series: "", Step: 0, Value: 1}}); err == nil {
		t.Fatal("empty series name should fail")
	}
	if err := s.AppendPoints(ctx, run.ID, []Point{{Series: "loss", Step: -1, Value: 1}}); err == nil {
		t.Fatal("negative step should fail")
	}
	if err := s.AppendPoints(ctx, "missing", []Point{{Series: "loss", Step: 0, Value: 1}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown run: expected ErrNotFound, got %v", err)
	}
	if err := s.AppendPoints(ctx, run.ID, nil); err != nil {
		t.Fatalf("empty append should be a no-op, got %v", err)
	}
}

func TestSeriesNotFound(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "lonely", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	if _, err := s.Series(ctx, run.ID, "loss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown series: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Series(ctx, "missing", "loss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown run: expected ErrNotFound, got %v", err)
	}
	if _, err := s.ListSeries(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown run: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "doomed", 1, "")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := s.AppendPoints(ctx, run.ID, []Point{{Series: "loss", Step: 0, Value: 1}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetRun(ctx, run.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Series(ctx, run.ID, "loss"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("series after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRun(ctx, run.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}
