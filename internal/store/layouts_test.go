package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/roach88/oprouter/internal/layout"
)

func TestSaveAndLoadLayout(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveLayout(ctx, createTestLayout("line")); err != nil {
		t.Fatalf("SaveLayout() failed: %v", err)
	}

	got, err := s.LoadLayout(ctx, "line")
	if err != nil {
		t.Fatalf("LoadLayout() failed: %v", err)
	}
	if got.Name != "line" || got.Now != 1.5 {
		t.Errorf("got name=%q now=%v, want line 1.5", got.Name, got.Now)
	}
	if len(got.Stations) != 2 || got.Stations[1].Pool[0] != "W1" {
		t.Errorf("stations not round-tripped: %+v", got.Stations)
	}
	if got.Operators[0].Rule != "EDD" {
		t.Errorf("rule = %q, want EDD", got.Operators[0].Rule)
	}
	if got.Jobs[0].DueDate != 4 {
		t.Errorf("due date = %v, want 4", got.Jobs[0].DueDate)
	}
}

func TestSaveLayout_UpsertBumpsRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	l := createTestLayout("line")
	if err := s.SaveLayout(ctx, l); err != nil {
		t.Fatalf("first SaveLayout() failed: %v", err)
	}
	l.Jobs = append(l.Jobs, layout.Job{ID: "J2", Station: "Q1"})
	if err := s.SaveLayout(ctx, l); err != nil {
		t.Fatalf("second SaveLayout() failed: %v", err)
	}

	infos, err := s.ListLayouts(ctx)
	if err != nil {
		t.Fatalf("ListLayouts() failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("len(infos) = %d, want 1", len(infos))
	}
	if infos[0].Revision != 2 {
		t.Errorf("revision = %d, want 2", infos[0].Revision)
	}
	if infos[0].Jobs != 2 {
		t.Errorf("jobs = %d, want 2", infos[0].Jobs)
	}
}

func TestSaveLayout_RejectsInvalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	l := createTestLayout("broken")
	l.Stations[0].Next = []string{"nowhere"}

	err := s.SaveLayout(ctx, l)
	var le *layout.Error
	if !errors.As(err, &le) {
		t.Fatalf("SaveLayout() error = %v, want *layout.Error", err)
	}
	if le.Code != layout.ErrCodeReference {
		t.Errorf("code = %q, want %q", le.Code, layout.ErrCodeReference)
	}

	if _, err := s.LoadLayout(ctx, "broken"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("invalid layout was stored: %v", err)
	}
}

func TestLoadLayout_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadLayout(context.Background(), "ghost")
	if !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("LoadLayout() error = %v, want ErrLayoutNotFound", err)
	}
}

func TestLoadLayout_RejectsCorruptDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO layouts (name, document, stations, operators, jobs) VALUES (?, ?, 0, 0, 0)`,
		"corrupt", `{"name":"corrupt","stations":[],"colour":"red"}`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := s.LoadLayout(ctx, "corrupt"); err == nil {
		t.Error("LoadLayout() of corrupt document should fail")
	}
}

func TestListLayouts_Empty(t *testing.T) {
	s := createTestStore(t)

	infos, err := s.ListLayouts(context.Background())
	if err != nil {
		t.Fatalf("ListLayouts() failed: %v", err)
	}
	if infos == nil {
		t.Error("infos is nil, want empty slice")
	}
	if len(infos) != 0 {
		t.Errorf("len(infos) = %d, want 0", len(infos))
	}
}

func TestListLayouts_OrderedByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"beta", "Alpha", "alpha"} {
		if err := s.SaveLayout(ctx, createTestLayout(name)); err != nil {
			t.Fatalf("SaveLayout(%q) failed: %v", name, err)
		}
	}

	infos, err := s.ListLayouts(ctx)
	if err != nil {
		t.Fatalf("ListLayouts() failed: %v", err)
	}

	want := []string{"Alpha", "alpha", "beta"}
	if len(infos) != len(want) {
		t.Fatalf("len(infos) = %d, want %d", len(infos), len(want))
	}
	for i, info := range infos {
		if info.Name != want[i] {
			t.Errorf("infos[%d].Name = %q, want %q", i, info.Name, want[i])
		}
		if info.Stations != 2 || info.Operators != 1 || info.Jobs != 1 {
			t.Errorf("infos[%d] counts = %+v", i, info)
		}
	}
}

func TestDeleteLayout(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.SaveLayout(ctx, createTestLayout("line")); err != nil {
		t.Fatalf("SaveLayout() failed: %v", err)
	}
	if err := s.DeleteLayout(ctx, "line"); err != nil {
		t.Fatalf("DeleteLayout() failed: %v", err)
	}
	if _, err := s.LoadLayout(ctx, "line"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("layout still present after delete: %v", err)
	}
	if err := s.DeleteLayout(ctx, "line"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("second DeleteLayout() error = %v, want ErrLayoutNotFound", err)
	}
}

func TestMarshalLayout_NoHTMLEscaping(t *testing.T) {
	doc, err := marshalLayout(createTestLayout("a<b>&c"))
	if err != nil {
		t.Fatalf("marshalLayout() failed: %v", err)
	}
	want := `"name":"a<b>&c"`
	if !strings.Contains(doc, want) {
		t.Errorf("document %s does not contain %s", doc, want)
	}
}
