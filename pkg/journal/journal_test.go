package journal

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryRecent(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()
	sid := uuid.New()

	for i := 0; i < 5; i++ {
		if err := m.Record(ctx, Entry{SessionID: sid, Kind: KindStep, StepIndex: i}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{"all", 0, []int{4, 3, 2}},
		{"limited", 2, []int{4, 3}},
		{"over", 10, []int{4, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Recent(ctx, tt.limit)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.StepIndex != tt.want[i] {
					t.Errorf("entry %d step = %d, want %d", i, e.StepIndex, tt.want[i])
				}
			}
		})
	}
}

func TestStamp(t *testing.T) {
	e := Stamp(Entry{Kind: KindStarted})
	if e.ID == uuid.Nil {
		t.Error("ID not set")
	}
	if e.At.IsZero() {
		t.Error("At not set")
	}

	id := uuid.New()
	if got := Stamp(Entry{ID: id}); got.ID != id {
		t.Error("existing ID overwritten")
	}
}
