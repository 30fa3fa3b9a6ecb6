package util

import (
	"testing"
)

func TestComputeNeighborIP(t *testing.T) {
	tests := []struct {
		ip      string
		maskLen int
		want    string
	}{
		{"10.100.0.1", 30, "10.100.0.2"},
		{"10.100.0.2", 30, "10.100.0.1"},
		{"10.100.0.0", 30, ""}, // network address
		{"10.100.0.3", 30, ""}, // broadcast address
		{"10.0.0.0", 31, "10.0.0.1"},
		{"10.0.0.1", 31, "10.0.0.0"},
		{"10.0.0.1", 24, ""}, // not point-to-point
		{"bogus", 30, ""},
	}
	for _, tt := range tests {
		if got := ComputeNeighborIP(tt.ip, tt.maskLen); got != tt.want {
			t.Errorf("ComputeNeighborIP(%s, %d) = %q, want %q", tt.ip, tt.maskLen, got, tt.want)
		}
	}
}

func TestComputeNetworkAddr(t *testing.T) {
	if got := ComputeNetworkAddr("10.100.0.6", 30); got != "10.100.0.4" {
		t.Errorf("network addr = %q, want 10.100.0.4", got)
	}
	if got := ComputeNetworkAddr("not-an-ip", 30); got != "" {
		t.Errorf("bad input should yield empty, got %q", got)
	}
}

func TestMaskFromPrefix(t *testing.T) {
	tests := []struct {
		prefix int
		want   string
	}{
		{30, "255.255.255.252"},
		{24, "255.255.255.0"},
		{16, "255.255.0.0"},
		{0, "0.0.0.0"},
		{33, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := MaskFromPrefix(tt.prefix); got != tt.want {
			t.Errorf("MaskFromPrefix(%d) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestWildcardMask(t *testing.T) {
	tests := []struct {
		mask string
		want string
	}{
		{"255.255.255.252", "0.0.0.3"},
		{"255.255.255.0", "0.0.0.255"},
		{"255.255.0.0", "0.0.255.255"},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := WildcardMask(tt.mask); got != tt.want {
			t.Errorf("WildcardMask(%s) = %q, want %q", tt.mask, got, tt.want)
		}
	}
}

func TestRouterID(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "10.1.1.1"},
		{1, "10.1.2.1"},
		{253, "10.1.254.1"},
		{254, "10.2.1.1"},
		{509, "10.3.2.1"},
	}
	for _, tt := range tests {
		if got := RouterID(tt.index); got != tt.want {
			t.Errorf("RouterID(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestRouterID_UniqueForRange(t *testing.T) {
	seen := make(map[string]int)
	for i := 0; i < 500; i++ {
		id := RouterID(i)
		if prev, dup := seen[id]; dup {
			t.Fatalf("RouterID collision: indices %d and %d both map to %s", prev, i, id)
		}
		seen[id] = i
	}
}

func TestSameSubnet(t *testing.T) {
	if !SameSubnet("10.100.0.1", "10.100.0.2", 30) {
		t.Error("10.100.0.1 and 10.100.0.2 share a /30")
	}
	if SameSubnet("10.100.0.1", "10.100.0.5", 30) {
		t.Error("10.100.0.1 and 10.100.0.5 are different /30s")
	}
}

func TestSplitIPMask(t *testing.T) {
	ip, mask := SplitIPMask("10.1.1.1/30")
	if ip != "10.1.1.1" || mask != 30 {
		t.Errorf("SplitIPMask = (%q, %d), want (10.1.1.1, 30)", ip, mask)
	}
	ip, mask = SplitIPMask("10.1.1.1")
	if ip != "10.1.1.1" || mask != 0 {
		t.Errorf("no-mask SplitIPMask = (%q, %d), want (10.1.1.1, 0)", ip, mask)
	}
}
