package econet

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParamDecode(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		data  []byte
		want  float64
	}{
		{
			name:  "byte",
			param: Param{Type: TypeByte},
			data:  []byte{42},
			want:  42,
		},
		{
			name:  "bool",
			param: Param{Type: TypeBool},
			data:  []byte{1},
			want:  1,
		},
		{
			name:  "int negative",
			param: Param{Type: TypeInt},
			data:  []byte{0xF6, 0xFF}, // -10
			want:  -10,
		},
		{
			name:  "int with negative exponent",
			param: Param{Type: TypeInt, Exponent: -1},
			data:  []byte{0xCD, 0x00}, // 205 -> 20.5
			want:  20.5,
		},
		{
			name:  "long int",
			param: Param{Type: TypeLongInt},
			data:  []byte{0x40, 0xE2, 0x01, 0x00}, // 123456
			want:  123456,
		},
		{
			name:  "float rounded to two decimals",
			param: Param{Type: TypeFloat},
			data:  binary.LittleEndian.AppendUint32(nil, math.Float32bits(21.456)),
			want:  21.46,
		},
		{
			name:  "word with positive exponent",
			param: Param{Type: TypeWord, Exponent: 1},
			data:  []byte{0x07, 0x00}, // 7 -> 70
			want:  70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.param.Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParamDecodeErrors(t *testing.T) {
	if _, err := (Param{Type: TypeInt}).Decode([]byte{0x01}); !errors.Is(err, ErrShortValue) {
		t.Errorf("short INT decode = %v, want ErrShortValue", err)
	}
	if _, err := (Param{Type: TypeString}).Decode([]byte("abc")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("STRING decode = %v, want ErrUnsupportedType", err)
	}
}

func TestParamEncode(t *testing.T) {
	tests := []struct {
		name  string
		param Param
		value float64
		want  []byte
	}{
		{
			name:  "byte",
			param: Param{Type: TypeByte},
			value: 2,
			want:  []byte{2},
		},
		{
			name:  "int with negative exponent",
			param: Param{Type: TypeInt, Exponent: -1},
			value: 20.5, // -> raw 205
			want:  []byte{0xCD, 0x00},
		},
		{
			name:  "int negative value",
			param: Param{Type: TypeInt},
			value: -10,
			want:  []byte{0xF6, 0xFF},
		},
		{
			name:  "dword",
			param: Param{Type: TypeDword},
			value: 123456,
			want:  []byte{0x40, 0xE2, 0x01, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.param.Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Encode length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Encode = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestParamEncodeDecodeRoundTrip(t *testing.T) {
	param := Param{Type: TypeInt, Exponent: -1}
	encoded, err := param.Encode(35.5)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := param.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded != 35.5 {
		t.Errorf("round trip = %v, want 35.5", decoded)
	}
}

func TestLoadParamMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	content := `{
  "tempcwu":      {"id": 170, "type": "FLOAT", "exponent": 0, "min": -20, "max": 100},
  "hdwtsetpoint": {"id": 171, "type": "BYTE", "exponent": 0},
  "worktime":     {"id": 300, "type": "DWORD", "exponent": 0}
}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing map file: %v", err)
	}

	m, err := LoadParamMap(path)
	if err != nil {
		t.Fatalf("LoadParamMap failed: %v", err)
	}
	if len(m) != 3 {
		t.Fatalf("len(map) = %d, want 3", len(m))
	}

	p, ok := m["tempcwu"]
	if !ok {
		t.Fatal("tempcwu missing from map")
	}
	if p.ID != 170 || p.Type != TypeFloat {
		t.Errorf("tempcwu = {id:%d type:%s}, want {id:170 type:FLOAT}", p.ID, p.Type)
	}
	if p.Min == nil || *p.Min != -20 {
		t.Error("tempcwu.Min not parsed")
	}
	if p.MaxDelta != nil {
		t.Error("tempcwu.MaxDelta should be nil when absent")
	}
}

func TestLoadParamMapMissingFile(t *testing.T) {
	if _, err := LoadParamMap(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadParamMap of missing file succeeded, want error")
	}
}

func TestLoadParamMapBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing map file: %v", err)
	}
	if _, err := LoadParamMap(path); err == nil {
		t.Fatal("LoadParamMap of invalid JSON succeeded, want error")
	}
}
