package session

// TransportMode selects whether a session runs over IPv4 or IPv6 transport
// (spec.md §3, "transport mode {IPv4, IPv6}").
type TransportMode uint8

const (
	TransportIPv4 TransportMode = 4
	TransportIPv6 TransportMode = 6
)

// Direction selects which side of a capability intersection is being asked
// about — spec.md §4.6, "addpath_enabled(afi, safi, direction)".
type Direction uint8

const (
	DirectionSend    Direction = 1
	DirectionReceive Direction = 2
)

// Parameters is the session-parameters record from spec.md §3: built by the
// caller for an outbound OPEN, updated by decoding the peer's OPEN, and
// thereafter immutable for the session's lifetime. It is the side input
// every UPDATE decode/encode in this module takes (spec.md §9).
type Parameters struct {
	LocalASN      uint32
	HoldTime      uint16
	RouterID      [4]byte // IPv4, as carried in OPEN
	Transport     TransportMode
	Capabilities  []Capability

	// addPath is the effective per-(AFI,SAFI,Direction) AddPath set after
	// RFC 7911 intersection in UpdateFrom. Built lazily; nil before the
	// peer's OPEN has been processed, in which case AddPathEnabled always
	// answers false.
	addPath map[addPathKey]bool

	// fourOctetASN caches whether both sides advertised CapFourOctetASN.
	fourOctetASN bool

	// PeerFourOctetASN / PeerASN record what the peer's OPEN advertised,
	// independent of intersection, as set by UpdateFrom. Nothing in this
	// module reads them; ASN width always comes from FourOctetASNEnabled.
	PeerASN          uint32
	PeerFourOctetASN bool
}

type addPathKey struct {
	afi       uint16
	safi      uint8
	direction Direction
}

// New builds a Parameters record with the caller's local intent — the
// outbound half of spec.md §4.6's "SessionParameters::new(...)".
func New(asn uint32, holdTime uint16, routerID [4]byte, transport TransportMode, caps []Capability) *Parameters {
	return &Parameters{
		LocalASN:     asn,
		HoldTime:     holdTime,
		RouterID:     routerID,
		Transport:    transport,
		Capabilities: caps,
	}
}

// FourOctetASNEnabled reports whether 4-octet ASN support applies to this
// session. Once UpdateFrom has processed the peer's OPEN it is the
// negotiated value (both sides advertised CapFourOctetASN); before that it
// reports local intent alone, so AS_PATH/AGGREGATOR width for an *outbound*
// message a caller builds before the peer's OPEN is seen follows what was
// locally advertised.
func (p *Parameters) FourOctetASNEnabled() bool {
	if p.addPath != nil {
		// Peer OPEN has been processed: use the negotiated (intersected) value.
		return p.fourOctetASN
	}
	for _, c := range p.Capabilities {
		if c.Code == CapFourOctetASN {
			return true
		}
	}
	return false
}

// UpdateFrom intersects the local capability set with a peer's advertised
// capabilities (decoded from the peer's OPEN) and records the effective
// negotiated state: spec.md §4.6, "(b) after decoding the peer's OPEN,
// update_from(peer_open) intersects capabilities". AddPath direction for
// each (AFI,SAFI) is the set-intersection per RFC 7911: local-send ∩
// remote-receive for DirectionSend, and the symmetric pairing for
// DirectionReceive.
func (p *Parameters) UpdateFrom(peerCaps []Capability) {
	p.addPath = make(map[addPathKey]bool)

	localAddPath := collectAddPath(p.Capabilities)
	peerAddPath := collectAddPath(peerCaps)

	for k, localDir := range localAddPath {
		peerDir, ok := peerAddPath[k]
		if !ok {
			continue
		}
		// We may SEND AddPath-framed NLRI to the peer iff we advertised
		// send/both AND the peer advertised receive/both.
		if canSend(localDir) && canReceive(peerDir) {
			p.addPath[addPathKey{k.AFI, k.SAFI, DirectionSend}] = true
		}
		// We may expect to RECEIVE AddPath-framed NLRI from the peer iff
		// we advertised receive/both AND the peer advertised send/both.
		if canReceive(localDir) && canSend(peerDir) {
			p.addPath[addPathKey{k.AFI, k.SAFI, DirectionReceive}] = true
		}
	}

	// p.addPath is already non-nil here, so FourOctetASNEnabled would report
	// the not-yet-computed negotiated value; read local intent directly.
	localFourOctet := false
	for _, c := range p.Capabilities {
		if c.Code == CapFourOctetASN {
			localFourOctet = true
			break
		}
	}
	peerFourOctet := false
	for _, c := range peerCaps {
		if c.Code == CapFourOctetASN {
			peerFourOctet = true
			p.PeerASN = c.ASN
			break
		}
	}
	p.PeerFourOctetASN = peerFourOctet
	p.fourOctetASN = localFourOctet && peerFourOctet
}

func collectAddPath(caps []Capability) map[AFISAFI]AddPathDirection {
	out := make(map[AFISAFI]AddPathDirection)
	for _, c := range caps {
		if c.Code != CapAddPath {
			continue
		}
		for _, e := range c.AddPath {
			out[AFISAFI{e.AFI, e.SAFI}] = e.Direction
		}
	}
	return out
}

func canSend(d AddPathDirection) bool    { return d == AddPathSend || d == AddPathBoth }
func canReceive(d AddPathDirection) bool { return d == AddPathReceive || d == AddPathBoth }

// AddPathEnabled answers spec.md §4.6's "addpath_enabled(afi, safi,
// direction) → bool": whether AddPath-framed NLRI should be used for this
// (AFI, SAFI) in the given direction, per the RFC 7911 intersection
// UpdateFrom computed. Before UpdateFrom has run (no peer OPEN processed
// yet), this always reports false — AddPath is never assumed unilaterally.
func (p *Parameters) AddPathEnabled(afi uint16, safi uint8, direction Direction) bool {
	if p.addPath == nil {
		return false
	}
	return p.addPath[addPathKey{afi, safi, direction}]
}

// ForceAddPath lets a caller that cannot consult negotiated capabilities
// (packet-capture replay, spec.md §4.3) override the AddPath decision for a
// specific (AFI, SAFI, direction) regardless of what UpdateFrom computed.
func (p *Parameters) ForceAddPath(afi uint16, safi uint8, direction Direction, enabled bool) {
	if p.addPath == nil {
		p.addPath = make(map[addPathKey]bool)
	}
	p.addPath[addPathKey{afi, safi, direction}] = enabled
}
