package task

import (
	"testing"

	"github.com/example/taskboard/modules/auth"
)

func TestSelectAssignee(t *testing.T) {
	u1 := auth.UserInfo{ID: "u1", Username: "alice"}
	u2 := auth.UserInfo{ID: "u2", Username: "bob"}
	u3 := auth.UserInfo{ID: "u3", Username: "carol"}

	tests := []struct {
		name   string
		users  []auth.UserInfo
		counts map[string]int
		want   string
		wantOK bool
	}{
		{
			name:   "least loaded wins",
			users:  []auth.UserInfo{u1, u2, u3},
			counts: map[string]int{"u1": 2, "u2": 0, "u3": 5},
			want:   "u2",
			wantOK: true,
		},
		{
			name:   "tie broken by slice order",
			users:  []auth.UserInfo{u1, u2, u3},
			counts: map[string]int{"u1": 1, "u2": 1, "u3": 1},
			want:   "u1",
			wantOK: true,
		},
		{
			name:   "missing count reads as zero",
			users:  []auth.UserInfo{u1, u2},
			counts: map[string]int{"u1": 3},
			want:   "u2",
			wantOK: true,
		},
		{
			name:   "single user",
			users:  []auth.UserInfo{u3},
			counts: map[string]int{"u3": 9},
			want:   "u3",
			wantOK: true,
		},
		{
			name:   "no users",
			users:  nil,
			counts: map[string]int{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectAssignee(tt.users, tt.counts)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got.ID != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.ID)
			}
		})
	}
}
