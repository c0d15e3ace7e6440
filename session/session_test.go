package session

import "testing"

func TestUpdateFromIntersectsAddPathPerRFC7911(t *testing.T) {
	local := New(64512, 180, [4]byte{1, 1, 1, 1}, TransportIPv4, []Capability{
		{Code: CapFourOctetASN, ASN: 64512},
		{Code: CapAddPath, AddPath: []AddPathEntry{{AFI: AFIv4, SAFI: 1, Direction: AddPathSend}}},
	})

	peerCaps := []Capability{
		{Code: CapFourOctetASN, ASN: 65001},
		{Code: CapAddPath, AddPath: []AddPathEntry{{AFI: AFIv4, SAFI: 1, Direction: AddPathReceive}}},
	}

	local.UpdateFrom(peerCaps)

	if !local.AddPathEnabled(AFIv4, 1, DirectionSend) {
		t.Error("expected AddPath enabled for send: local sends, peer receives")
	}
	if local.AddPathEnabled(AFIv4, 1, DirectionReceive) {
		t.Error("expected AddPath disabled for receive: peer only advertised receive, not send")
	}
	if !local.FourOctetASNEnabled() {
		t.Error("expected four-octet ASN negotiated when both sides advertise it")
	}
}

func TestUpdateFromNoFourOctetASNWhenOnlyOneSideAdvertises(t *testing.T) {
	local := New(64512, 180, [4]byte{1, 1, 1, 1}, TransportIPv4, []Capability{
		{Code: CapFourOctetASN, ASN: 64512},
	})
	local.UpdateFrom(nil)
	if local.FourOctetASNEnabled() {
		t.Error("expected four-octet ASN not negotiated when peer doesn't advertise it")
	}
}

func TestAddPathEnabledBeforeUpdateFromIsAlwaysFalse(t *testing.T) {
	p := New(64512, 180, [4]byte{1, 1, 1, 1}, TransportIPv4, nil)
	if p.AddPathEnabled(AFIv4, 1, DirectionSend) {
		t.Error("expected AddPath disabled before any peer OPEN processed")
	}
}

func TestForceAddPathOverridesNegotiation(t *testing.T) {
	p := New(64512, 180, [4]byte{1, 1, 1, 1}, TransportIPv4, nil)
	p.ForceAddPath(AFIv4, 1, DirectionReceive, true)
	if !p.AddPathEnabled(AFIv4, 1, DirectionReceive) {
		t.Error("expected ForceAddPath to enable AddPath regardless of negotiation")
	}
}

// AFIv4 is a local alias to keep the test table terse; avoids importing addr
// into this package's tests just for a constant.
const AFIv4 uint16 = 1
