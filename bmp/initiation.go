package bmp

// InitiationMessage is the decoded body of a BMP Initiation message (RFC
// 7854 §4.3): a sequence of information TLVs describing the monitoring
// station's view of the monitored router, with no per-peer header.
type InitiationMessage struct {
	Information []InformationTLV
}

// DecodeInitiation decodes an Initiation body.
func DecodeInitiation(buf []byte) (InitiationMessage, int, error) {
	tlvs, err := decodeTLVs(buf)
	if err != nil {
		return InitiationMessage{}, 0, err
	}
	return InitiationMessage{Information: tlvs}, len(buf), nil
}

// EncodeInitiation serializes an InitiationMessage.
func EncodeInitiation(msg InitiationMessage) []byte {
	return encodeTLVs(msg.Information)
}

// TerminationMessage is the decoded body of a BMP Termination message (RFC
// 7854 §4.4): information TLVs, where type 0 carries a free-text reason and
// type 1 (RFC 7854 §4.4) carries a 2-byte reason code.
type TerminationMessage struct {
	Information []InformationTLV
}

// TerminationReasonCode types are carried as 2-byte TLV values under TLV
// type 1 (RFC 7854 §4.4).
const (
	TerminationReasonAdminClose            uint16 = 0
	TerminationReasonUnspecified           uint16 = 1
	TerminationReasonOutOfResources        uint16 = 2
	TerminationReasonRedundantConnection   uint16 = 3
	TerminationReasonPermanentlyAdminClose uint16 = 4
)

// DecodeTermination decodes a Termination body.
func DecodeTermination(buf []byte) (TerminationMessage, int, error) {
	tlvs, err := decodeTLVs(buf)
	if err != nil {
		return TerminationMessage{}, 0, err
	}
	return TerminationMessage{Information: tlvs}, len(buf), nil
}

// EncodeTermination serializes a TerminationMessage.
func EncodeTermination(msg TerminationMessage) []byte {
	return encodeTLVs(msg.Information)
}
