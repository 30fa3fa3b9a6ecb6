package intent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/topoforge-network/topoforge/pkg/util"
)

func validIntent() *Intent {
	return &Intent{
		Name:       "branch-net",
		Pattern:    Ring,
		SiteCount:  6,
		Redundancy: RedundancyStandard,
		MaxHops:    5,
		Protocol:   OSPF,
		DesignGoal: GoalCost,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validIntent().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Intent)
	}{
		{"empty name", func(in *Intent) { in.Name = "" }},
		{"unknown pattern", func(in *Intent) { in.Pattern = "torus" }},
		{"site_count too low", func(in *Intent) { in.SiteCount = 1 }},
		{"site_count too high", func(in *Intent) { in.SiteCount = 501 }},
		{"unknown redundancy", func(in *Intent) { in.Redundancy = "extreme" }},
		{"zero max_hops", func(in *Intent) { in.MaxHops = 0 }},
		{"unknown protocol", func(in *Intent) { in.Protocol = "rip" }},
		{"unknown goal", func(in *Intent) { in.DesignGoal = "beauty" }},
		{"negative min conns", func(in *Intent) { in.MinConnsPerSite = -1 }},
		{"min conns >= sites", func(in *Intent) { in.MinConnsPerSite = 6 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validIntent()
			tt.mutate(in)
			err := in.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, util.ErrInvalidIntent) {
				t.Errorf("expected ErrInvalidIntent, got %v", err)
			}
		})
	}
}

func TestRedundancyTargets(t *testing.T) {
	tests := []struct {
		level Redundancy
		want  int
	}{
		{RedundancyMinimum, 1},
		{RedundancyStandard, 2},
		{RedundancyHigh, 3},
		{RedundancyCritical, 4},
	}
	for _, tt := range tests {
		if got := tt.level.Target(); got != tt.want {
			t.Errorf("%s target = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestParse_Constraints(t *testing.T) {
	in := validIntent()
	in.Redundancy = RedundancyHigh
	in.MinConnsPerSite = 4
	in.MinimizeSPOF = true

	cons, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cons.PathTarget != 3 {
		t.Errorf("PathTarget = %d, want 3", cons.PathTarget)
	}
	if cons.MinConnections != 4 {
		t.Errorf("MinConnections = %d, want 4 (explicit floor above target)", cons.MinConnections)
	}
	if cons.MaxDiameter != 5 {
		t.Errorf("MaxDiameter = %d, want 5", cons.MaxDiameter)
	}
	if !cons.RequireNoSPOF {
		t.Error("RequireNoSPOF should carry through")
	}
	if cons.Pattern != Ring {
		t.Errorf("Pattern = %s, want ring", cons.Pattern)
	}
}

func TestParsePattern_All(t *testing.T) {
	for _, p := range Patterns() {
		got, err := ParsePattern(string(p))
		if err != nil || got != p {
			t.Errorf("ParsePattern(%s) = %v, %v", p, got, err)
		}
	}
	if _, err := ParsePattern("mesh"); err == nil {
		t.Error("expected error for unknown pattern label")
	}
}

func TestLoadIntent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intent.yml")
	data := `name: dc-east
pattern: leaf-spine
site_count: 10
redundancy: critical
max_hops: 3
protocol: ospf
design_goal: redundancy
minimize_spof: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	in, err := LoadIntent(path)
	if err != nil {
		t.Fatalf("LoadIntent: %v", err)
	}
	if in.Pattern != LeafSpine || in.SiteCount != 10 || !in.MinimizeSPOF {
		t.Errorf("loaded intent = %+v", in)
	}
}

func TestLoadIntent_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intent.yml")
	data := `name: x
pattern: ring
site_count: 4
redundancy: minimum
max_hops: 4
protocol: ospf
design_goal: cost
favorite_color: blue
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadIntent(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadIntent_FileNotFound(t *testing.T) {
	if _, err := LoadIntent("/nonexistent/intent.yml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
