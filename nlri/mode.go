// Package nlri implements C3: per-(AFI,SAFI) NLRI parse/serialize,
// AddPath framing, EVPN route-type dispatch, and the Flowspec component
// tree. Each supported (AFI, SAFI) pair is a variant with its own
// decode/encode, selected through a dispatch table (spec.md §9) rather
// than an inheritance hierarchy.
package nlri

import "github.com/route-beacon/bgpcodec/addr"

// Mode carries the two pieces of context spec.md §4.3 says a decoder needs
// beyond the raw bytes: whether AddPath framing applies to this block, and
// whether this block is a withdraw (which changes labeled-family sentinel
// handling).
type Mode struct {
	AddPath  bool
	Withdraw bool
}

// AFISAFI identifies which per-family codec to dispatch to.
type AFISAFI struct {
	AFI  uint16
	SAFI uint8
}

// Entry is a decoded NLRI element. Exactly the fields relevant to this
// entry's (AFI, SAFI) are populated; which fields apply is determined by
// AFI/SAFI/RouteType, matching the "tagged sum" shape spec.md §9 asks for
// without requiring a Go interface per family.
type Entry struct {
	AFI  uint16
	SAFI uint8

	HasPathID bool
	PathID    uint32

	// Prefix is populated for every family except EVPN/Flowspec/VPLS/MVPN,
	// which have their own wire shapes.
	Prefix addr.BgpNet

	// Labels is populated for labeled-unicast and the VPN families.
	Labels []addr.MPLSLabel

	// RD is populated for the VPN families and MVPN/MDT.
	HasRD bool
	RD    addr.RouteDistinguisher

	// EVPN is populated when SAFI == addr.SAFIEVPN.
	EVPN *EVPNRoute

	// VPLS is populated when SAFI == addr.SAFIVPLS.
	VPLS *VPLSRoute

	// Flowspec is populated when SAFI == addr.SAFIFlowspec.
	Flowspec *FlowspecRoute

	// MVPNRouteType/MVPNValue are populated when SAFI == addr.SAFIMVPN:
	// RFC 6514 route-type internals are not modeled field-by-field (see
	// DESIGN.md); the type and the bytes following the RD are preserved.
	MVPNRouteType uint8
	MVPNValue     []byte

	// MDTGroup is populated when SAFI == addr.SAFIMDT: the 4-byte
	// multicast group address that follows the source prefix (RFC 6037 §4).
	MDTGroup addr.BgpNet
}

func maxBitsForAFI(afi uint16) int {
	if afi == addr.AFIIPv6 {
		return 128
	}
	return 32
}
