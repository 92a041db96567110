package parser

import "github.com/okian/eegscope/internal/domain/model"

// Wire-format delimiters.
const (
	FieldSeparator    = ","
	KeyValueSeparator = ":"
)

type valueKind int

const (
	kindUint valueKind = iota
	kindDecimal
	kindText
)

// field binds one wire key to its value kind and its slot in model.Reading.
type field struct {
	key      string
	kind     valueKind
	setInt   func(r *model.Reading, v int64)
	setFloat func(r *model.Reading, v float64)
	getInt   func(r *model.Reading) int64
	getFloat func(r *model.Reading) float64
}

// Keys in the order the analyzer firmware prints them.
const (
	KeySecond            = "second"
	KeyRMS               = "RMS"
	KeySpikeCount        = "spikeCount"
	KeyAlphaPower        = "alphaPower"
	KeyAttention         = "attention"
	KeyThetaPower        = "thetaPower"
	KeyThetaIndex        = "thetaIndex"
	KeyDominantThetaFreq = "dominantThetaFreq"
	KeyDeltaPower        = "deltaPower"
	KeyDeltaIndex        = "deltaIndex"
	KeyDominantDeltaFreq = "dominantDeltaFreq"
	KeyBetaPower         = "betaPower"
	KeyBetaIndex         = "betaIndex"
	KeyDominantBetaFreq  = "dominantBetaFreq"
	KeyState             = "state"
)

var fields = [...]field{
	{
		key:    KeySecond,
		kind:   kindUint,
		setInt: func(r *model.Reading, v int64) { r.Seconds = v },
		getInt: func(r *model.Reading) int64 { return r.Seconds },
	},
	decimal(KeyRMS, func(r *model.Reading) *float64 { return &r.RMS }),
	{
		key:    KeySpikeCount,
		kind:   kindUint,
		setInt: func(r *model.Reading, v int64) { r.SpikeCount = v },
		getInt: func(r *model.Reading) int64 { return r.SpikeCount },
	},
	decimal(KeyAlphaPower, func(r *model.Reading) *float64 { return &r.AlphaPower }),
	decimal(KeyAttention, func(r *model.Reading) *float64 { return &r.Attention }),
	decimal(KeyThetaPower, func(r *model.Reading) *float64 { return &r.ThetaPower }),
	decimal(KeyThetaIndex, func(r *model.Reading) *float64 { return &r.ThetaIndex }),
	decimal(KeyDominantThetaFreq, func(r *model.Reading) *float64 { return &r.DominantThetaFreq }),
	decimal(KeyDeltaPower, func(r *model.Reading) *float64 { return &r.DeltaPower }),
	decimal(KeyDeltaIndex, func(r *model.Reading) *float64 { return &r.DeltaIndex }),
	decimal(KeyDominantDeltaFreq, func(r *model.Reading) *float64 { return &r.DominantDeltaFreq }),
	decimal(KeyBetaPower, func(r *model.Reading) *float64 { return &r.BetaPower }),
	decimal(KeyBetaIndex, func(r *model.Reading) *float64 { return &r.BetaIndex }),
	decimal(KeyDominantBetaFreq, func(r *model.Reading) *float64 { return &r.DominantBetaFreq }),
	{key: KeyState, kind: kindText},
}

// FieldCount is the number of fields in a well-formed line.
const FieldCount = len(fields)

func decimal(key string, slot func(r *model.Reading) *float64) field {
	return field{
		key:      key,
		kind:     kindDecimal,
		setFloat: func(r *model.Reading, v float64) { *slot(r) = v },
		getFloat: func(r *model.Reading) float64 { return *slot(r) },
	}
}

// Keys returns the wire keys in order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}
