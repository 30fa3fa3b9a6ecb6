package topology

import (
	"fmt"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// LinkSubnet is one allocated /30 for a point-to-point link.
type LinkSubnet struct {
	Network string // network address, e.g. 10.100.0.0
	First   string // first host, .1
	Second  string // second host, .2
	Mask    string // 255.255.255.252
}

// SubnetAllocator hands out /30 subnets from a private range with a
// monotonically advancing pointer. Allocation order is a pure
// function of the call sequence, so replaying a synthesis yields
// identical addresses.
type SubnetAllocator struct {
	base  uint32
	next  uint32
	limit uint32
}

// linkRangeBase is the base of the documented default pool for point-to-point links.
const linkRangeBase = "10.100.0.0"

// NewSubnetAllocator returns an allocator over 10.100.0.0/16, which
// holds 16384 /30 subnets.
func NewSubnetAllocator() *SubnetAllocator {
	base := ipv4ToUint(10, 100, 0, 0)
	return &SubnetAllocator{
		base:  base,
		next:  base,
		limit: base + 1<<16,
	}
}

// NextLinkSubnet returns the next unused /30. It fails with
// ErrAddressSpaceExhausted once the pointer overruns the range.
func (a *SubnetAllocator) NextLinkSubnet() (LinkSubnet, error) {
	if a.next+4 > a.limit {
		return LinkSubnet{}, fmt.Errorf("no /30 left in %s/16: %w", linkRangeBase, util.ErrAddressSpaceExhausted)
	}
	network := a.next
	a.next += 4
	return LinkSubnet{
		Network: uintToIPv4(network),
		First:   uintToIPv4(network + 1),
		Second:  uintToIPv4(network + 2),
		Mask:    util.MaskFromPrefix(30),
	}, nil
}

// Allocated returns how many /30s have been handed out.
func (a *SubnetAllocator) Allocated() int {
	return int((a.next - a.base) / 4)
}

func ipv4ToUint(a, b, c, d uint32) uint32 {
	return a<<24 | b<<16 | c<<8 | d
}

func uintToIPv4(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", v>>24&0xff, v>>16&0xff, v>>8&0xff, v&0xff)
}
