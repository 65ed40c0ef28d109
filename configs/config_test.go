package config

import (
	"testing"
	"time"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "1062635928", want: []int64{1062635928}},
		{name: "spaces and trailing comma", raw: " 1, 2 ,3,", want: []int64{1, 2, 3}},
		{name: "garbage", raw: "1,abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApproverRolesAdminWins(t *testing.T) {
	roles := ApproverRoles([]int64{1, 2}, []int64{2, 3})
	if len(roles) != 3 {
		t.Fatalf("expected 3 approvers, got %d", len(roles))
	}
	if roles[2] != RoleAdmin {
		t.Errorf("identity in both lists should be admin, got %q", roles[2])
	}
	if roles[3] != RoleFinance {
		t.Errorf("expected finance role, got %q", roles[3])
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/edir")
	t.Setenv("ADMIN_IDS", "10")
	t.Setenv("FINANCE_IDS", "20,30")
	t.Setenv("GROUP_ID", "-1003740305702")
	t.Setenv("PENDING_TTL", "30m")
	t.Setenv("PORT", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.GroupID != -1003740305702 {
		t.Errorf("GroupID = %d", s.GroupID)
	}
	if s.PendingTTL != 30*time.Minute {
		t.Errorf("PendingTTL = %v", s.PendingTTL)
	}
	if s.Port != "3000" {
		t.Errorf("Port default = %q", s.Port)
	}
	if len(s.Approvers) != 3 {
		t.Errorf("Approvers = %v", s.Approvers)
	}
}

func TestLoadRequiresApprover(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/edir")
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("FINANCE_IDS", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without approvers")
	}
}
