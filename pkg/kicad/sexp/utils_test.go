package sexp

import (
	"testing"

	"github.com/OpenTraceLab/OpenTraceKiCad/pkg/kicad/kerrors"
)

func TestGetString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		index   int
		want    string
		wantErr bool
	}{
		{
			name:  "get first value",
			input: "(layer F.Cu)",
			index: 0,
			want:  "F.Cu",
		},
		{
			name:  "quoted value is unquoted",
			input: `(layer "F.Cu")`,
			index: 0,
			want:  "F.Cu",
		},
		{
			name:  "get third value",
			input: "(at 100 50 90)",
			index: 2,
			want:  "90",
		},
		{
			name:    "index out of bounds",
			input:   "(layer F.Cu)",
			index:   5,
			wantErr: true,
		},
		{
			name:    "list at index",
			input:   "(pad 1 (at 0 0))",
			index:   1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := parseList(t, tt.input)
			got, err := GetString(l, tt.index)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GetString() expected error, got nil")
				} else if !kerrors.Is(err, kerrors.KindSchema) {
					t.Errorf("GetString() error kind = %q, want schema violation", kerrors.KindOf(err))
				}
				return
			}

			if err != nil {
				t.Errorf("GetString() unexpected error: %v", err)
				return
			}

			if got != tt.want {
				t.Errorf("GetString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetNumbers(t *testing.T) {
	l := parseList(t, `(via (size 0.6) (net 3) (layers "F.Cu" "B.Cu"))`)

	size, _ := FindNode(l, "size")
	if v, err := GetFloat(size, 0); err != nil || v != 0.6 {
		t.Errorf("GetFloat(size) = %v, %v", v, err)
	}

	net, _ := FindNode(l, "net")
	if v, err := GetInt(net, 0); err != nil || v != 3 {
		t.Errorf("GetInt(net) = %v, %v", v, err)
	}

	layers, _ := FindNode(l, "layers")
	if _, err := GetInt(layers, 0); err == nil {
		t.Error("GetInt(layers) expected error")
	}
}

func TestFindProperty(t *testing.T) {
	sheet := parseList(t, `(sheet (at 0 0)
		(property "Sheetname" "power")
		(property "Sheetfile" "power.kicad_sch")
		(uuid 3a1c7a5e-0000-4000-8000-00000000000a))`)

	if _, v, ok := FindProperty(sheet, "Sheetfile"); !ok || v != "power.kicad_sch" {
		t.Errorf("FindProperty(Sheetfile) = %q, %v", v, ok)
	}
	if _, _, ok := FindProperty(sheet, "Missing"); ok {
		t.Error("FindProperty(Missing) found something")
	}

	uuid, err := GetUUID(sheet)
	if err != nil || uuid != "3a1c7a5e-0000-4000-8000-00000000000a" {
		t.Errorf("GetUUID() = %q, %v", uuid, err)
	}
}
