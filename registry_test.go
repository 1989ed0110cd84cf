package ingestrt

import (
	"errors"
	"testing"

	"github.com/corestream/ingestrt/ingesterr"
)

func noopParse(raw any) (any, error) { return raw, nil }

func noopProcess(Payload) (*ProcessResult, error) { return nil, nil }

func TestNewRegistry_PreservesDeclarationOrder(t *testing.T) {
	a := NewResource("a", nil, noopParse, noopProcess)
	b := NewResource("b", nil, noopParse, noopProcess)
	c := NewResource("c", nil, noopParse, noopProcess)

	reg, err := newRegistry([]Resource{a, b, c})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}

	names := reg.names()
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("position %d: want %q, got %q", i, n, names[i])
		}
	}
}

func TestNewRegistry_DuplicateNameFailsConstruction(t *testing.T) {
	foo1 := NewResource("foo", nil, noopParse, noopProcess)
	foo2 := NewResource("foo", nil, noopParse, noopProcess)

	_, err := newRegistry([]Resource{foo1, foo2})
	if err == nil {
		t.Fatal("expected DuplicateResource error, got nil")
	}

	var dupErr *ingesterr.DuplicateResourceError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *ingesterr.DuplicateResourceError, got %T", err)
	}
	if dupErr.Name != "foo" {
		t.Errorf("want Name=%q, got %q", "foo", dupErr.Name)
	}
}

func TestNormalizePayloads(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  int
	}{
		{"nil", nil, 0},
		{"single", "hello", 1},
		{"slice", []any{"a", "b", "c"}, 3},
		{"empty slice", []any{}, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := normalizePayloads(c.input)
			if len(got) != c.want {
				t.Errorf("want %d payloads, got %d", c.want, len(got))
			}
		})
	}
}
