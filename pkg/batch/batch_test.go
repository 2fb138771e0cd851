package batch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/spec"
)

type resolved struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

func echo(ctx context.Context, p spec.Parsed) (resolved, error) {
	return resolved{Name: p.Name, Range: p.FetchSpec}, nil
}

func TestRunPreservesOrder(t *testing.T) {
	res, err := Run(context.Background(), "vite@2+nuxt@3+react", Options{}, echo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"vite", "nuxt", "react"}
	if len(res.Items) != len(want) {
		t.Fatalf("got %d items, want %d", len(res.Items), len(want))
	}
	for i, name := range want {
		if res.Items[i].Failed() {
			t.Errorf("item %d failed: %+v", i, res.Items[i].Err)
		}
		if res.Items[i].Value.Name != name {
			t.Errorf("item %d = %q, want %q", i, res.Items[i].Value.Name, name)
		}
	}
	if _, ok := res.Single(); ok {
		t.Error("Single() ok for a three item batch")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	handler := func(ctx context.Context, p spec.Parsed) (resolved, error) {
		if p.Name == "nuxt" {
			return resolved{}, errors.Upstream(`[GET] "https://registry.npmjs.org/nuxt": 500 Internal Server Error`)
		}
		return echo(ctx, p)
	}

	res, err := Run(context.Background(), "vite@2+not a valid name!!+nuxt@3", Options{}, handler)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("got %d items", len(res.Items))
	}
	if res.Items[0].Failed() || res.Items[0].Value.Name != "vite" {
		t.Errorf("item 0 = %+v", res.Items[0])
	}
	if !res.Items[1].Failed() || res.Items[1].Err.Name != "not a valid name!!" {
		t.Errorf("item 1 = %+v", res.Items[1])
	}
	if !res.Items[2].Failed() {
		t.Fatalf("item 2 did not fail")
	}
	if res.Items[2].Err.Name != "nuxt@3" {
		t.Errorf("item 2 name = %q", res.Items[2].Err.Name)
	}
	if res.Items[2].Err.Error != `[GET] "https://registry.npmjs.org/nuxt": 500 Internal Server Error` {
		t.Errorf("item 2 error = %q", res.Items[2].Err.Error)
	}
}

func TestRunThrowOnError(t *testing.T) {
	handler := func(ctx context.Context, p spec.Parsed) (resolved, error) {
		switch p.Name {
		case "b":
			return resolved{}, errors.Upstream("b is down")
		case "c":
			return resolved{}, errors.Upstream("c is down")
		}
		return echo(ctx, p)
	}

	_, err := Run(context.Background(), "a+b+c", Options{ThrowOnError: true}, handler)
	if !errors.Is(err, errors.ErrCodeBatchFailed) {
		t.Fatalf("err = %v, want BATCH_FAILED", err)
	}
	if msg := errors.UserMessage(err); msg != "b is down" {
		t.Errorf("message = %q, want first failure by index", msg)
	}

	res, err := Run(context.Background(), "a+b+c", Options{}, handler)
	if err != nil {
		t.Fatalf("Run without throw: %v", err)
	}
	if res.Items[0].Failed() || !res.Items[1].Failed() || !res.Items[2].Failed() {
		t.Errorf("items = %+v", res.Items)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	handler := func(ctx context.Context, p spec.Parsed) (resolved, error) {
		if p.Name == "boom" {
			panic("kaboom")
		}
		return echo(ctx, p)
	}

	res, err := Run(context.Background(), "ok+boom", Options{}, handler)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Items[1].Failed() || res.Items[1].Err.Error != "kaboom" {
		t.Errorf("item 1 = %+v", res.Items[1].Err)
	}
	if res.Items[0].Failed() {
		t.Errorf("item 0 failed: %+v", res.Items[0].Err)
	}
}

func TestRunSeparators(t *testing.T) {
	for _, raw := range []string{"a+b", "a%2Bb", "a%2bb", "a b", " a + b "} {
		res, err := Run(context.Background(), raw, Options{}, echo)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if len(res.Items) != 2 || res.Items[0].Value.Name != "a" || res.Items[1].Value.Name != "b" {
			t.Errorf("%q: items = %+v", raw, res.Items)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	for _, raw := range []string{"", "+", " + "} {
		_, err := Run(context.Background(), raw, Options{}, echo)
		if !errors.Is(err, errors.ErrCodeInvalidSpecifier) {
			t.Errorf("%q: err = %v, want INVALID_SPECIFIER", raw, err)
		}
	}
}

func TestResultJSON(t *testing.T) {
	single, err := Run(context.Background(), "vite@2", Options{}, echo)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := single.Single(); !ok {
		t.Fatal("Single() not ok for one specifier")
	}
	data, err := json.Marshal(single)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"name":"vite","range":"2"}` {
		t.Errorf("single = %s", got)
	}

	many, err := Run(context.Background(), "vite@2+@", Options{}, echo)
	if err != nil {
		t.Fatal(err)
	}
	data, err = json.Marshal(many)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("batch is not an array: %s", data)
	}
	if len(decoded) != 2 || decoded[1]["name"] != "@" || decoded[1]["error"] == "" {
		t.Errorf("batch = %s", data)
	}
}
