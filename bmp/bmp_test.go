package bmp

import (
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/route-beacon/bgpcodec/addr"
	"github.com/route-beacon/bgpcodec/attribute"
	"github.com/route-beacon/bgpcodec/bgp"
	"github.com/route-beacon/bgpcodec/nlri"
	"github.com/route-beacon/bgpcodec/session"
)

func samplePeerHeader() PerPeerHeader {
	h := PerPeerHeader{Type: PeerTypeGlobal, Distinguisher: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	copy(h.Address[12:], net.IPv4(192, 0, 2, 1).To4())
	h.ASN = 64512
	h.BGPID = [4]byte{192, 0, 2, 1}
	h.TimestampSec = 1700000000
	return h
}

func encodeOpenMessage(t *testing.T, msg bgp.OpenMessage) []byte {
	t.Helper()
	body := make([]byte, 256)
	bn, err := bgp.EncodeOpen(body, msg)
	if err != nil {
		t.Fatalf("encode open body: %v", err)
	}
	full := make([]byte, 64+bn)
	fn, err := bgp.PrepareMessageBuf(full, bgp.MessageOpen, bn)
	if err != nil {
		t.Fatalf("prepare open header: %v", err)
	}
	copy(full[bgp.HeaderSize:fn], body[:bn])
	return full[:fn]
}

func TestPeerUpPopulatesCacheFromSentAndReceivedOpen(t *testing.T) {
	sent := bgp.OpenMessage{
		Version: bgp.OpenVersion, ASN: 64512, HoldTime: 90, RouterID: [4]byte{192, 0, 2, 1},
		Capabilities: []session.Capability{{Code: session.CapFourOctetASN, ASN: 64512}},
	}
	received := bgp.OpenMessage{
		Version: bgp.OpenVersion, ASN: 64513, HoldTime: 90, RouterID: [4]byte{192, 0, 2, 2},
		Capabilities: []session.Capability{{Code: session.CapFourOctetASN, ASN: 64513}},
	}
	sentBytes := encodeOpenMessage(t, sent)
	receivedBytes := encodeOpenMessage(t, received)

	peer := samplePeerHeader()
	body := make([]byte, 0, PerPeerHeaderSize+20+len(sentBytes)+len(receivedBytes))
	hdrBuf := make([]byte, PerPeerHeaderSize)
	if _, err := encodePerPeerHeader(hdrBuf, peer); err != nil {
		t.Fatalf("encode per-peer header: %v", err)
	}
	body = append(body, hdrBuf...)
	body = append(body, make([]byte, 20)...) // local address + local port + remote port
	body = append(body, sentBytes...)
	body = append(body, receivedBytes...)

	cache := NewPeerCache()
	msg, n, err := DecodePeerUp(body, cache)
	if err != nil {
		t.Fatalf("decode peerup: %v", err)
	}
	if n != len(body) {
		t.Fatalf("consumed %d, want %d", n, len(body))
	}
	if msg.SentOpen.ASN != 64512 || msg.ReceivedOpen.ASN != 64513 {
		t.Fatalf("got sent=%d received=%d", msg.SentOpen.ASN, msg.ReceivedOpen.ASN)
	}

	params, ok := cache.Get(peer)
	if !ok {
		t.Fatal("expected cache entry after PeerUp")
	}
	if !params.FourOctetASNEnabled() {
		t.Fatal("expected 4-octet ASN negotiated from both OPENs")
	}
}

func TestPeerCacheDoesNotCollideAcrossGlobalPeersSharingZeroDistinguisher(t *testing.T) {
	// PeerType=Global peers conventionally carry an all-zero distinguisher
	// (RFC 7854 §4.2 — it's only meaningful for PeerTypeRD). Two distinct
	// peers sharing that zero distinguisher must not overwrite each
	// other's cached parameters.
	peerA := PerPeerHeader{Type: PeerTypeGlobal, ASN: 64512, BGPID: [4]byte{192, 0, 2, 1}}
	copy(peerA.Address[12:], net.IPv4(192, 0, 2, 1).To4())

	peerB := PerPeerHeader{Type: PeerTypeGlobal, ASN: 64513, BGPID: [4]byte{192, 0, 2, 2}}
	copy(peerB.Address[12:], net.IPv4(192, 0, 2, 2).To4())

	paramsA := session.New(64512, 90, [4]byte{192, 0, 2, 1}, session.TransportIPv4, nil)
	paramsB := session.New(64513, 90, [4]byte{192, 0, 2, 2}, session.TransportIPv4, []session.Capability{
		{Code: session.CapFourOctetASN, ASN: 64513},
	})

	cache := NewPeerCache()
	cache.Put(peerA, paramsA)
	cache.Put(peerB, paramsB)

	gotA, ok := cache.Get(peerA)
	if !ok {
		t.Fatal("expected cache entry for peer A")
	}
	if gotA != paramsA {
		t.Fatalf("peer A's cached parameters were overwritten: got %+v", gotA)
	}
	if gotA.FourOctetASNEnabled() {
		t.Fatal("peer A should not have inherited peer B's 4-octet ASN capability")
	}

	gotB, ok := cache.Get(peerB)
	if !ok {
		t.Fatal("expected cache entry for peer B")
	}
	if gotB != paramsB {
		t.Fatalf("peer B's cached parameters were overwritten: got %+v", gotB)
	}

	cache.Delete(peerA)
	if _, ok := cache.Get(peerA); ok {
		t.Fatal("expected peer A's entry to be removed")
	}
	if _, ok := cache.Get(peerB); !ok {
		t.Fatal("deleting peer A must not remove peer B's entry")
	}
}

func TestRouteMonitoringUsesCachedParametersWhenPresent(t *testing.T) {
	peer := samplePeerHeader()
	params := session.New(64512, 90, [4]byte{192, 0, 2, 1}, session.TransportIPv4, []session.Capability{
		{Code: session.CapFourOctetASN, ASN: 64512},
	})
	params.UpdateFrom([]session.Capability{{Code: session.CapFourOctetASN, ASN: 64513}})
	cache := NewPeerCache()
	cache.Put(peer, params)

	update := bgp.UpdateMessage{
		Attributes: []attribute.Attribute{
			{Flags: attribute.FlagTransitive, Type: attribute.TypeOrigin, OriginValue: attribute.OriginIGP},
			{Flags: attribute.FlagTransitive, Type: attribute.TypeASPath, ASPath: []attribute.ASPathSegment{{Type: attribute.ASSequence, ASNs: []uint32{64512}}}},
			{Flags: attribute.FlagTransitive, Type: attribute.TypeNextHop, NextHop: net.IPv4(10, 0, 0, 1).To4()},
		},
		NLRI: []nlri.Entry{{AFI: 1, SAFI: 1, Prefix: addr.BgpNet{IP: net.IPv4(192, 0, 2, 0).To4(), Bits: 24}}},
	}
	updateBody := make([]byte, 256)
	un, err := bgp.EncodeUpdate(updateBody, update, 4, false)
	if err != nil {
		t.Fatalf("encode update: %v", err)
	}
	full := make([]byte, 64+un)
	fn, err := bgp.PrepareMessageBuf(full, bgp.MessageUpdate, un)
	if err != nil {
		t.Fatalf("prepare update header: %v", err)
	}
	copy(full[bgp.HeaderSize:fn], updateBody[:un])

	hdrBuf := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(hdrBuf, peer)
	body := append(append([]byte{}, hdrBuf...), full[:fn]...)

	rm, n, err := DecodeRouteMonitoring(body, cache, nil)
	if err != nil {
		t.Fatalf("decode routemonitoring: %v", err)
	}
	if n != len(body) {
		t.Fatalf("consumed %d, want %d", n, len(body))
	}
	if rm.AmbiguousContext {
		t.Fatal("expected non-ambiguous context with cached PeerUp")
	}
	if len(rm.Update.NLRI) != 1 {
		t.Fatalf("expected 1 NLRI entry, got %d", len(rm.Update.NLRI))
	}
}

func TestRouteMonitoringWithoutCacheEntryIsAmbiguousNotAnError(t *testing.T) {
	peer := samplePeerHeader()
	update := bgp.UpdateMessage{}
	updateBody := make([]byte, 64)
	un, err := bgp.EncodeUpdate(updateBody, update, 2, false)
	if err != nil {
		t.Fatalf("encode update: %v", err)
	}
	full := make([]byte, 64+un)
	fn, err := bgp.PrepareMessageBuf(full, bgp.MessageUpdate, un)
	if err != nil {
		t.Fatalf("prepare update header: %v", err)
	}
	copy(full[bgp.HeaderSize:fn], updateBody[:un])

	hdrBuf := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(hdrBuf, peer)
	body := append(append([]byte{}, hdrBuf...), full[:fn]...)

	rm, _, err := DecodeRouteMonitoring(body, NewPeerCache(), nil)
	if err != nil {
		t.Fatalf("decode routemonitoring: %v", err)
	}
	if !rm.AmbiguousContext {
		t.Fatal("expected AmbiguousContext when no PeerUp was cached")
	}
}

func TestPeerDownLocalNotificationCarriesEmbeddedNotification(t *testing.T) {
	peer := samplePeerHeader()
	notifBody := make([]byte, 16)
	nn, err := bgp.EncodeNotification(notifBody, bgp.NotificationMessage{ErrorCode: 6, ErrorSubcode: 2})
	if err != nil {
		t.Fatalf("encode notification: %v", err)
	}
	full := make([]byte, 64+nn)
	fn, err := bgp.PrepareMessageBuf(full, bgp.MessageNotification, nn)
	if err != nil {
		t.Fatalf("prepare notification header: %v", err)
	}
	copy(full[bgp.HeaderSize:fn], notifBody[:nn])

	hdrBuf := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(hdrBuf, peer)
	body := append(append([]byte{}, hdrBuf...), byte(PeerDownLocalNotification))
	body = append(body, full[:fn]...)

	pd, _, err := DecodePeerDown(body)
	if err != nil {
		t.Fatalf("decode peerdown: %v", err)
	}
	if pd.Notification == nil || pd.Notification.ErrorCode != 6 {
		t.Fatalf("expected embedded NOTIFICATION, got %+v", pd.Notification)
	}
}

func TestPeerDownRemoteNoNotificationHasNoTrailingData(t *testing.T) {
	peer := samplePeerHeader()
	hdrBuf := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(hdrBuf, peer)
	body := append(append([]byte{}, hdrBuf...), byte(PeerDownRemoteNoNotification))

	pd, n, err := DecodePeerDown(body)
	if err != nil {
		t.Fatalf("decode peerdown: %v", err)
	}
	if n != len(body) || pd.Notification != nil {
		t.Fatalf("got n=%d notification=%+v", n, pd.Notification)
	}
}

func TestInitiationRoundTrip(t *testing.T) {
	msg := InitiationMessage{Information: []InformationTLV{
		{Type: TLVSysDescr, Value: []byte("route-beacon")},
		{Type: TLVSysName, Value: []byte("rb1")},
	}}
	encoded := EncodeInitiation(msg)
	got, n, err := DecodeInitiation(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d, want %d", n, len(encoded))
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStatisticsReportRoundTrip(t *testing.T) {
	peer := samplePeerHeader()
	msg := StatisticsReportMessage{
		Peer: peer,
		Stats: []StatTLV{
			{Type: StatAdjRIBInRoutes, Value: []byte{0, 0, 0, 42}},
			{Type: StatPrefixesRejected, Value: []byte{0, 0, 0, 0}},
		},
	}
	buf := make([]byte, 256)
	n, err := EncodeStatisticsReport(buf, msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, consumed, err := DecodeStatisticsReport(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDispatchesRouteMonitoring(t *testing.T) {
	peer := samplePeerHeader()
	update := bgp.UpdateMessage{}
	updateBody := make([]byte, 64)
	un, _ := bgp.EncodeUpdate(updateBody, update, 2, false)
	full := make([]byte, 64+un)
	fn, _ := bgp.PrepareMessageBuf(full, bgp.MessageUpdate, un)
	copy(full[bgp.HeaderSize:fn], updateBody[:un])

	hdrBuf := make([]byte, PerPeerHeaderSize)
	encodePerPeerHeader(hdrBuf, peer)
	body := append(append([]byte{}, hdrBuf...), full[:fn]...)

	outer := make([]byte, CommonHeaderSize+len(body))
	on, err := EncodeCommonHeader(outer, MessageRouteMonitoring, len(body))
	if err != nil {
		t.Fatalf("encode common header: %v", err)
	}
	copy(outer[CommonHeaderSize:on], body)

	msg, n, err := Decode(outer[:on], NewPeerCache(), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != on || msg.Type != MessageRouteMonitoring || msg.RouteMonitoring == nil {
		t.Fatalf("got %+v", msg)
	}
}
