package contract

import "condorcet_dao/sdk"

const (
	// kConfig stores the module Config as json.
	kConfig byte = 0x01
	// kProposal contains encoded condorcet.Proposal records.
	kProposal byte = 0x10
	// kTally holds the encoded tally next to its proposal.
	kTally byte = 0x11
	// kBallot stores one ballot receipt per proposal and voter.
	kBallot byte = 0x20
)

// packU32LEInline writes x into dst in little-endian order so our keys stay compact.
func packU32LEInline(x uint32, dst []byte) {
	dst[0] = byte(x)
	dst[1] = byte(x >> 8)
	dst[2] = byte(x >> 16)
	dst[3] = byte(x >> 24)
}

// packU32LE appends the encoded number to dst and returns the new slice.
func packU32LE(x uint32, dst []byte) []byte {
	return append(dst,
		byte(x),
		byte(x>>8),
		byte(x>>16),
		byte(x>>24),
	)
}

func configKey() string {
	return string([]byte{kConfig})
}

// proposalKey encodes id under 0x10 prefix keeping proposal records contiguous.
func proposalKey(id uint32) string {
	var buf [5]byte
	buf[0] = kProposal
	packU32LEInline(id, buf[1:])
	return string(buf[:])
}

func tallyKey(id uint32) string {
	var buf [5]byte
	buf[0] = kTally
	packU32LEInline(id, buf[1:])
	return string(buf[:])
}

// ballotKey mixes proposal id plus voter address so receipts need no nested maps.
func ballotKey(id uint32, voter sdk.Address) string {
	addr := voter.String()
	buf := make([]byte, 0, 1+4+len(addr))
	buf = append(buf, kBallot)
	buf = packU32LE(id, buf)
	buf = append(buf, addr...)
	return string(buf)
}
