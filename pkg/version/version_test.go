package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	got := Info()
	if !strings.Contains(got, Version) || !strings.Contains(got, GitCommit) {
		t.Errorf("Info() = %q, should contain version and commit", got)
	}
}
