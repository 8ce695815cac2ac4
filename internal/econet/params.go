package econet

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ParamType identifies a register's on-wire value encoding.
// The names match the vendor's protocol documentation and the JSON map files.
type ParamType string

// Register value types.
const (
	TypeByte     ParamType = "BYTE"
	TypeShortInt ParamType = "SHORT_INT"
	TypeBool     ParamType = "BOOL"
	TypeInt      ParamType = "INT"
	TypeWord     ParamType = "WORD"
	TypeDword    ParamType = "DWORD"
	TypeLongInt  ParamType = "LONG_INT"
	TypeFloat    ParamType = "FLOAT"
	TypeString   ParamType = "STRING"
)

// Param describes one controller register from the map file.
type Param struct {
	// ID is the 16-bit register address.
	ID uint16 `json:"id"`

	// Type is the on-wire value encoding.
	Type ParamType `json:"type"`

	// Exponent scales raw values: decoded = raw * 10^Exponent.
	// Negative for fractional registers (e.g. -1 for tenths of a degree).
	Exponent int `json:"exponent"`

	// Min and Max are optional plausibility bounds used by the
	// coordinator's validation. Values outside are treated as outliers.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// MaxDelta is an optional limit on change between consecutive reads.
	MaxDelta *float64 `json:"max_delta,omitempty"`
}

// width returns the number of value bytes the type occupies on the wire.
func (p Param) width() (int, error) {
	switch p.Type {
	case TypeByte, TypeShortInt, TypeBool:
		return 1, nil
	case TypeInt, TypeWord:
		return 2, nil
	case TypeDword, TypeLongInt, TypeFloat:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, p.Type)
	}
}

// Decode converts raw wire bytes to a scaled value.
//
// Integer types are sign-extended the way the controller encodes them
// (INT/WORD as little-endian int16, DWORD/LONG_INT as int32). The exponent
// is applied and the result rounded to two decimals, matching the
// resolution the controller's own display uses.
func (p Param) Decode(data []byte) (float64, error) {
	width, err := p.width()
	if err != nil {
		return 0, err
	}
	if len(data) < width {
		return 0, fmt.Errorf("%w: have %d bytes, need %d for %s", ErrShortValue, len(data), width, p.Type)
	}

	var raw float64
	switch p.Type {
	case TypeByte, TypeShortInt, TypeBool:
		raw = float64(data[0])
	case TypeInt, TypeWord:
		raw = float64(int16(binary.LittleEndian.Uint16(data[:2])))
	case TypeDword, TypeLongInt:
		raw = float64(int32(binary.LittleEndian.Uint32(data[:4])))
	case TypeFloat:
		raw = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[:4])))
	}

	if p.Exponent != 0 && p.Type != TypeFloat {
		raw *= math.Pow(10, float64(p.Exponent))
	}
	return math.Round(raw*100) / 100, nil
}

// Encode converts a scaled value to raw wire bytes.
//
// The inverse of Decode: the exponent is divided out before the value is
// packed into the type's integer representation.
func (p Param) Encode(value float64) ([]byte, error) {
	if p.Type == TypeFloat {
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(float32(value))), nil
	}

	raw := value
	if p.Exponent != 0 {
		raw = value / math.Pow(10, float64(p.Exponent))
	}
	n := int64(math.Round(raw))

	switch p.Type {
	case TypeByte, TypeShortInt, TypeBool:
		return []byte{byte(n)}, nil
	case TypeInt, TypeWord:
		return binary.LittleEndian.AppendUint16(nil, uint16(int16(n))), nil
	case TypeDword, TypeLongInt:
		return binary.LittleEndian.AppendUint32(nil, uint32(int32(n))), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, p.Type)
	}
}

// ParamMap maps stable slugs (e.g. "tempcwu") to register definitions.
type ParamMap map[string]Param

// LoadParamMap reads a register map from a JSON file.
//
// The map file is firmware-specific: register ids shift between controller
// models, so the file is shipped alongside the bridge rather than baked in.
//
// Parameters:
//   - path: Path to the JSON map file
//
// Returns:
//   - ParamMap: Parsed register map
//   - error: If the file cannot be read or parsed
func LoadParamMap(path string) (ParamMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading register map: %w", err)
	}

	var m ParamMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing register map: %w", err)
	}
	return m, nil
}
