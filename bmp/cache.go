package bmp

import "github.com/route-beacon/bgpcodec/session"

// PeerCache holds the effective session.Parameters PeerUp synthesizes for
// each monitored peer, keyed by the composite identity spec.md §3 defines:
// peer type, peer distinguisher, peer address, peer ASN, and router ID. The
// distinguisher alone is not enough — it is only meaningful for
// PeerTypeRD (L3VPN) peers and is conventionally all-zero for the common
// PeerTypeGlobal case, so two distinct global peers would otherwise
// collide on one cache entry. A RouteMonitoring message carries no session
// parameters of its own — its embedded UPDATE's ASN width and AddPath
// framing depend entirely on what the corresponding PeerUp negotiated
// (spec.md §5).
//
// PeerCache does no internal locking: spec.md §5 defines this as a
// single-writer, multiple-reader structure, and the library leaves
// synchronization to the caller, the same way it leaves everything else
// about threading and I/O to the caller.
type PeerCache struct {
	peers map[peerKey]*session.Parameters
}

// peerKey is the composite cache key spec.md §3 specifies.
type peerKey struct {
	Type          PeerType
	Distinguisher [8]byte
	Address       [16]byte
	ASN           uint32
	RouterID      [4]byte
}

func keyFor(h PerPeerHeader) peerKey {
	return peerKey{
		Type:          h.Type,
		Distinguisher: h.Distinguisher,
		Address:       h.Address,
		ASN:           h.ASN,
		RouterID:      h.BGPID,
	}
}

// NewPeerCache returns an empty cache.
func NewPeerCache() *PeerCache {
	return &PeerCache{peers: make(map[peerKey]*session.Parameters)}
}

// Get returns the cached parameters for peer's composite identity, if a
// PeerUp for it has been processed.
func (c *PeerCache) Get(peer PerPeerHeader) (*session.Parameters, bool) {
	p, ok := c.peers[keyFor(peer)]
	return p, ok
}

// Put records the effective parameters for peer's composite identity,
// overwriting any prior entry — a peer that flaps produces a new PeerUp
// with (possibly) renegotiated capabilities.
func (c *PeerCache) Put(peer PerPeerHeader, p *session.Parameters) {
	c.peers[keyFor(peer)] = p
}

// Delete removes peer's entry, typically in response to PeerDown.
func (c *PeerCache) Delete(peer PerPeerHeader) {
	delete(c.peers, keyFor(peer))
}
