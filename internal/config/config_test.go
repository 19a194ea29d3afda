package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ostegm/moltbook-study/internal/model"
)

func TestJudgeConfigValidate(t *testing.T) {
	base := Default().Judge

	if err := base.Validate(); err != nil {
		t.Fatalf("default judge config should validate: %v", err)
	}

	// zero timeout/rps/burst mean "use the client default" and are fine
	sparse := JudgeConfig{Model: "gpt-4o-mini"}
	if err := sparse.Validate(); err != nil {
		t.Fatalf("sparse judge config should validate: %v", err)
	}

	cases := []func(*JudgeConfig){
		func(j *JudgeConfig) { j.Model = "" },
		func(j *JudgeConfig) { j.TimeoutSeconds = -1 },
		func(j *JudgeConfig) { j.RPS = -0.5 },
		func(j *JudgeConfig) { j.Burst = -1 },
	}
	for i, mutate := range cases {
		j := base
		mutate(&j)
		if err := j.Validate(); !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("case %d: expected configuration error, got %v", i, err)
		}
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "moltjudge.yaml")
	want := Default()
	want.Judge.Model = "test-model"
	want.Moltbook.PageSize = 42
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Judge.Model != "test-model" || got.Moltbook.PageSize != 42 {
		t.Fatalf("roundtrip lost fields: %+v", got)
	}
	if got.Paths.Raw != want.Paths.Raw {
		t.Fatalf("paths differ: %s", got.Paths.Raw)
	}
}
