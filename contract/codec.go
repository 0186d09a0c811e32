package contract

import (
	"fmt"
	"strconv"

	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/holiman/uint256"

	"condorcet_dao/contract/condorcet"
)

// readObject walks a json object and hands every non-null field to fn. Unknown keys must be
// skipped by fn itself.
func readObject(in *jlexer.Lexer, fn func(key string)) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		fn(key)
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// readVariant reads a single key object like {"height":10}. fn returns false for unknown keys.
func readVariant(in *jlexer.Lexer, what string, fn func(key string) bool) {
	seen := 0
	readObject(in, func(key string) {
		seen++
		if !fn(key) {
			in.AddError(fmt.Errorf("%w: unknown %s %q", ErrInvalidPayload, what, key))
			in.SkipRecursive()
		}
	})
	if seen != 1 && in.Ok() {
		in.AddError(fmt.Errorf("%w: %s needs exactly one variant", ErrInvalidPayload, what))
	}
}

func readUint32s(in *jlexer.Lexer) []uint32 {
	out := []uint32{}
	in.Delim('[')
	for !in.IsDelim(']') {
		out = append(out, in.Uint32())
		in.WantComma()
	}
	in.Delim(']')
	return out
}

func writeUint32s(out *jwriter.Writer, vals []uint32) {
	out.RawByte('[')
	for i, v := range vals {
		if i > 0 {
			out.RawByte(',')
		}
		out.Uint32(v)
	}
	out.RawByte(']')
}

// readPower parses a decimal string, the way Uint128 travels in cosmwasm json.
func readPower(in *jlexer.Lexer) *uint256.Int {
	s := in.String()
	if !in.Ok() {
		return nil
	}
	p, err := condorcet.ParsePower(s)
	if err != nil {
		in.AddError(err)
		return nil
	}
	return p
}

func writePower(out *jwriter.Writer, p *uint256.Int) {
	if p == nil {
		out.String("0")
		return
	}
	out.String(p.Dec())
}

// readThreshold accepts {"majority":{}} or {"percent":"0.5"}.
func readThreshold(in *jlexer.Lexer) condorcet.PercentageThreshold {
	var t condorcet.PercentageThreshold
	readVariant(in, "threshold", func(key string) bool {
		switch key {
		case "majority":
			in.SkipRecursive()
			t = condorcet.Majority()
		case "percent":
			parsed, err := condorcet.ParsePercent(in.String())
			if err != nil {
				in.AddError(err)
			}
			t = parsed
		default:
			return false
		}
		return true
	})
	return t
}

func writeThreshold(out *jwriter.Writer, t condorcet.PercentageThreshold) {
	if t.Kind == condorcet.ThresholdMajority {
		out.RawString(`{"majority":{}}`)
		return
	}
	out.RawString(`{"percent":`)
	out.String(t.Percent.String())
	out.RawByte('}')
}

// readDuration accepts {"height":n} or {"time":seconds}.
func readDuration(in *jlexer.Lexer) condorcet.Duration {
	var d condorcet.Duration
	readVariant(in, "duration", func(key string) bool {
		switch key {
		case "height":
			d = condorcet.Height(in.Uint64())
		case "time":
			d = condorcet.Time(in.Uint64())
		default:
			return false
		}
		return true
	})
	return d
}

func writeDuration(out *jwriter.Writer, d condorcet.Duration) {
	if d.Kind == condorcet.DurationTime {
		out.RawString(`{"time":`)
	} else {
		out.RawString(`{"height":`)
	}
	out.Uint64(d.Value)
	out.RawByte('}')
}

// writeExpiration mirrors cw-utils: at_time is a nanosecond string.
func writeExpiration(out *jwriter.Writer, e condorcet.Expiration) {
	switch e.Kind {
	case condorcet.ExpiresAtHeight:
		out.RawString(`{"at_height":`)
		out.Uint64(e.Value)
		out.RawByte('}')
	case condorcet.ExpiresAtTime:
		out.RawString(`{"at_time":`)
		out.String(strconv.FormatUint(e.Value, 10))
		out.RawByte('}')
	default:
		out.RawString(`{"never":{}}`)
	}
}

func writeWinner(out *jwriter.Writer, w condorcet.Winner) {
	if c, ok := w.Leader(); ok {
		out.RawString(`{"` + w.Kind.String() + `":`)
		out.Uint32(c)
		out.RawByte('}')
		return
	}
	out.RawString(`{"` + w.Kind.String() + `":{}}`)
}
