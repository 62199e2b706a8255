package hdf5

import (
	"errors"
	"reflect"
	"testing"

	"github.com/robert-malhotra/mat2img/internal/message"
)

func TestWalk(t *testing.T) {
	f := openBytes(t, sampleWriter(t))
	var visited []string
	err := Walk(f.Root(), func(path string, obj any, err error) error {
		if err != nil {
			return err
		}
		switch obj.(type) {
		case *Group:
			visited = append(visited, "G "+path)
		case *Dataset:
			visited = append(visited, "D "+path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"G /", "G /cjdata", "D /cjdata/image", "D /cjdata/label"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	w := NewWriter()
	a, _ := w.Root().CreateGroup("a")
	if _, err := a.CreateDataset("x", message.NewFloat(8), nil, make([]byte, 8)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Root().CreateGroup("b"); err != nil {
		t.Fatal(err)
	}
	f := openBytes(t, w)

	var visited []string
	err := Walk(f.Root(), func(path string, obj any, err error) error {
		visited = append(visited, path)
		if path == "/a" {
			return SkipGroup
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(visited, []string{"/", "/a", "/b"}) {
		t.Errorf("visited %v", visited)
	}

	stop := errors.New("stop")
	err = Walk(f.Root(), func(path string, obj any, err error) error {
		if path == "/a/x" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk = %v, want stop", err)
	}
}
