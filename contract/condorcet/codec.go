package condorcet

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"condorcet_dao/sdk"
)

// recordVersion leads every encoded record so the layout can change later.
const recordVersion byte = 1

type binWriter struct {
	buf bytes.Buffer
}

// newWriter spins up a fresh writer so we dont leak old bytes between encodes.
func newWriter() *binWriter { return &binWriter{} }

func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

func (w *binWriter) writeByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *binWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// writeUint64 writes big endian numbers so tooling can read them without guessing.
func (w *binWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// writeVarUint uses varints to keep counts and lens compact.
func (w *binWriter) writeVarUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *binWriter) writeBytes(b []byte) {
	w.writeVarUint(uint64(len(b)))
	w.buf.Write(b)
}

// writeString prefixes its length then dumps UTF-8 directly.
func (w *binWriter) writeString(s string) {
	w.writeVarUint(uint64(len(s)))
	w.buf.WriteString(s)
}

// writeUint256 stores the minimal big endian bytes, zero is a single length byte.
func (w *binWriter) writeUint256(v *uint256.Int) {
	w.writeBytes(v.Bytes())
}

// writeMargin splits the sign off so the magnitude reuses writeUint256.
func (w *binWriter) writeMargin(m Margin) {
	w.writeBool(m.Sign() < 0)
	w.writeUint256(m.Abs())
}

func (w *binWriter) writeExpiration(e Expiration) {
	w.writeByte(byte(e.Kind))
	w.writeUint64(e.Value)
}

func (w *binWriter) writeThreshold(t PercentageThreshold) {
	w.writeByte(byte(t.Kind))
	if t.Kind == ThresholdPercent {
		w.writeString(t.Percent.String())
	}
}

type binReader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *binReader {
	return &binReader{data: data}
}

func (r *binReader) eof(what string) error {
	return fmt.Errorf("%w: unexpected EOF reading %s at %d", ErrDecode, what, r.pos)
}

func (r *binReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.eof("byte")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *binReader) readBool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	if b > 1 {
		return false, fmt.Errorf("%w: bool byte %d at %d", ErrDecode, b, r.pos-1)
	}
	return b == 1, nil
}

func (r *binReader) readUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, r.eof("uint64")
	}
	val := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return val, nil
}

func (r *binReader) readVarUint() (uint64, error) {
	val, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: invalid varuint at %d", ErrDecode, r.pos)
	}
	r.pos += n
	return val, nil
}

// readBytes copies so decoded records never alias the stored value.
func (r *binReader) readBytes() ([]byte, error) {
	l, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if l > uint64(len(r.data)-r.pos) {
		return nil, r.eof("bytes")
	}
	out := make([]byte, l)
	copy(out, r.data[r.pos:r.pos+int(l)])
	r.pos += int(l)
	return out, nil
}

func (r *binReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *binReader) readUint256() (*uint256.Int, error) {
	b, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("%w: %d byte integer", ErrDecode, len(b))
	}
	v := new(uint256.Int).SetBytes(b)
	if err := CheckPower(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return v, nil
}

func (r *binReader) readMargin() (Margin, error) {
	neg, err := r.readBool()
	if err != nil {
		return Margin{}, err
	}
	abs, err := r.readUint256()
	if err != nil {
		return Margin{}, err
	}
	return NewMargin(abs, neg), nil
}

func (r *binReader) readExpiration() (Expiration, error) {
	kind, err := r.readByte()
	if err != nil {
		return Expiration{}, err
	}
	if ExpirationKind(kind) > ExpiresAtTime {
		return Expiration{}, fmt.Errorf("%w: expiration kind %d", ErrDecode, kind)
	}
	v, err := r.readUint64()
	if err != nil {
		return Expiration{}, err
	}
	if ExpirationKind(kind) == ExpiresAtTime && v > math.MaxInt64 {
		return Expiration{}, fmt.Errorf("%w: expiration time %d", ErrDecode, v)
	}
	return Expiration{Kind: ExpirationKind(kind), Value: v}, nil
}

func (r *binReader) readThreshold() (PercentageThreshold, error) {
	kind, err := r.readByte()
	if err != nil {
		return PercentageThreshold{}, err
	}
	switch ThresholdKind(kind) {
	case ThresholdMajority:
		return Majority(), nil
	case ThresholdPercent:
		s, err := r.readString()
		if err != nil {
			return PercentageThreshold{}, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return PercentageThreshold{}, fmt.Errorf("%w: percent %q", ErrDecode, s)
		}
		return Percent(d), nil
	}
	return PercentageThreshold{}, fmt.Errorf("%w: threshold kind %d", ErrDecode, kind)
}

func (r *binReader) readVersion() error {
	v, err := r.readByte()
	if err != nil {
		return err
	}
	if v != recordVersion {
		return fmt.Errorf("%w: record version %d", ErrDecode, v)
	}
	return nil
}

func (r *binReader) done() error {
	if r.pos != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(r.data)-r.pos)
	}
	return nil
}

// EncodeProposal packs a proposal including its cached status into the stored layout.
func EncodeProposal(p *Proposal) []byte {
	w := newWriter()
	w.writeByte(recordVersion)
	w.writeVarUint(uint64(p.ID))
	w.writeString(p.Title)
	w.writeString(p.Description)
	w.writeString(p.Proposer.String())
	w.writeVarUint(uint64(len(p.Choices)))
	for _, c := range p.Choices {
		w.writeString(c.Title)
		w.writeVarUint(uint64(len(c.Msgs)))
		for _, m := range c.Msgs {
			w.writeBytes(m)
		}
	}
	w.writeThreshold(p.Quorum)
	w.writeExpiration(p.Expiration)
	w.writeBool(p.MinVotingPeriod != nil)
	if p.MinVotingPeriod != nil {
		w.writeExpiration(*p.MinVotingPeriod)
	}
	w.writeUint64(p.StartHeight)
	w.writeUint256(&p.TotalPower)
	w.writeByte(byte(p.lastStatus))
	return w.bytes()
}

// DecodeProposal is the inverse of EncodeProposal.
func DecodeProposal(data []byte) (*Proposal, error) {
	r := newReader(data)
	if err := r.readVersion(); err != nil {
		return nil, err
	}
	p := &Proposal{}
	id, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	p.ID = uint32(id)
	if p.Title, err = r.readString(); err != nil {
		return nil, err
	}
	if p.Description, err = r.readString(); err != nil {
		return nil, err
	}
	proposer, err := r.readString()
	if err != nil {
		return nil, err
	}
	p.Proposer = sdk.Address(proposer)
	count, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d choices", ErrDecode, count)
	}
	p.Choices = make([]Choice, 0, count)
	for i := uint64(0); i < count; i++ {
		var c Choice
		if c.Title, err = r.readString(); err != nil {
			return nil, err
		}
		msgs, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		for j := uint64(0); j < msgs; j++ {
			m, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			c.Msgs = append(c.Msgs, json.RawMessage(m))
		}
		p.Choices = append(p.Choices, c)
	}
	if p.Quorum, err = r.readThreshold(); err != nil {
		return nil, err
	}
	if p.Expiration, err = r.readExpiration(); err != nil {
		return nil, err
	}
	hasMin, err := r.readBool()
	if err != nil {
		return nil, err
	}
	if hasMin {
		minExp, err := r.readExpiration()
		if err != nil {
			return nil, err
		}
		p.MinVotingPeriod = &minExp
	}
	if p.StartHeight, err = r.readUint64(); err != nil {
		return nil, err
	}
	total, err := r.readUint256()
	if err != nil {
		return nil, err
	}
	p.TotalPower.Set(total)
	status, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if Status(status) > StatusExecutionFailed {
		return nil, fmt.Errorf("%w: status %d", ErrDecode, status)
	}
	p.lastStatus = Status(status)
	if err := r.done(); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeTally writes the upper triangle row by row, then outstanding power and the winner.
func EncodeTally(t *Tally) []byte {
	w := newWriter()
	w.writeByte(recordVersion)
	w.writeVarUint(uint64(t.matrix.n))
	for _, cell := range t.matrix.cells {
		w.writeMargin(cell)
	}
	w.writeUint256(&t.outstanding)
	w.writeByte(byte(t.winner.Kind))
	w.writeVarUint(uint64(t.winner.Candidate))
	return w.bytes()
}

// DecodeTally is the inverse of EncodeTally.
func DecodeTally(data []byte) (*Tally, error) {
	r := newReader(data)
	if err := r.readVersion(); err != nil {
		return nil, err
	}
	n, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	// every cell takes at least two bytes
	if n == 0 || n*(n-1) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d candidates", ErrDecode, n)
	}
	m, err := NewMatrix(int(n))
	if err != nil {
		return nil, err
	}
	for i := range m.cells {
		if m.cells[i], err = r.readMargin(); err != nil {
			return nil, err
		}
	}
	outstanding, err := r.readUint256()
	if err != nil {
		return nil, err
	}
	kind, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if WinnerKind(kind) > WinnerUndisputed {
		return nil, fmt.Errorf("%w: winner kind %d", ErrDecode, kind)
	}
	cand, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if cand >= n {
		return nil, fmt.Errorf("%w: winner candidate %d of %d", ErrDecode, cand, n)
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return restoreTally(m, outstanding, Winner{Kind: WinnerKind(kind), Candidate: uint32(cand)}), nil
}
