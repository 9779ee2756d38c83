package tile_test

import (
	"errors"
	"testing"

	"github.com/eak1mov/go-quadstream/tile"
	"github.com/google/go-cmp/cmp"
)

func TestCodeRoundTrip(t *testing.T) {
	for z := range 8 {
		for x := range 1 << z {
			for y := range 1 << z {
				tileID := tile.ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}
				if diff := cmp.Diff(tileID, tile.FromCode(tileID.Code())); diff != "" {
					t.Errorf("FromCode(Code(%v)) mismatch (-want+got):\n%v", tileID, diff)
				}
			}
		}
	}
}

func TestCodeOrdersByDepth(t *testing.T) {
	if got := tile.Root.Code(); got != 0 {
		t.Errorf("Root.Code() = %v, want = 0", got)
	}
	for _, child := range tile.Root.Children() {
		if code := child.Code(); code < 1 || code > 4 {
			t.Errorf("%v.Code() = %v, want in [1, 4]", child, code)
		}
	}
}

func TestKey(t *testing.T) {
	tileID := tile.ID{X: 3, Y: 5, Z: 4}
	if got, want := tileID.Key(), "4/3/5"; got != want {
		t.Errorf("Key() = %q, want = %q", got, want)
	}
	parsed, err := tile.ParseKey("4/3/5")
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if diff := cmp.Diff(tileID, parsed); diff != "" {
		t.Errorf("ParseKey mismatch (-want+got):\n%v", diff)
	}
}

func TestParseKeyInvalid(t *testing.T) {
	for _, key := range []string{"", "1/2", "a/b/c", "1/2/0", "0/0/0/0", "-1/0/0"} {
		if _, err := tile.ParseKey(key); !errors.Is(err, tile.ErrInvalidKey) {
			t.Errorf("ParseKey(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestChildrenParent(t *testing.T) {
	parent := tile.ID{X: 1, Y: 2, Z: 2}
	want := [4]tile.ID{
		{X: 2, Y: 4, Z: 3},
		{X: 3, Y: 4, Z: 3},
		{X: 2, Y: 5, Z: 3},
		{X: 3, Y: 5, Z: 3},
	}
	if diff := cmp.Diff(want, parent.Children()); diff != "" {
		t.Errorf("Children mismatch (-want+got):\n%v", diff)
	}
	for i, child := range parent.Children() {
		if got := child.Parent(); got != parent {
			t.Errorf("%v.Parent() = %v, want = %v", child, got, parent)
		}
		if got := child.Quadrant(); got != i {
			t.Errorf("%v.Quadrant() = %v, want = %v", child, got, i)
		}
	}
	if got := tile.Root.Parent(); got != tile.Root {
		t.Errorf("Root.Parent() = %v, want = %v", got, tile.Root)
	}
}
