package protocol

import (
	"math/bits"

	"github.com/mdlayher/irctl/irp"
)

// ScancodeField is one parameter's slot within a packed kernel scancode:
// Width bits, starting Shift bits from the scancode's LSB.
type ScancodeField struct {
	Name  string
	Width uint8
	Shift uint8
}

// ScancodeFields returns e's IRP parameters (skipping "T", the toggle,
// per the preserve-as-is "T is skipped when packing a scancode into
// parameters" decision), packed MSB-first in declaration order. There is
// no per-protocol scancode layout table: the IRP's own parameter order
// already encodes the reference tool's field order (e.g. NEC's
// D:8,S:8,F:8 becomes address-then-function once T-less parameters are
// concatenated), so the layout is derived, not hand-maintained.
func (e Entry) ScancodeFields() ([]ScancodeField, error) {
	return ScancodeFieldsForIRP(e.IRP)
}

// ScancodeFieldsForIRP is ScancodeFields for an arbitrary IRP source, not
// limited to a catalog Entry: the TOML keymap front-end uses this for a
// "[[protocols]]" entry that names an inline irp string rather than a
// catalog protocol.
func ScancodeFieldsForIRP(irpSrc string) ([]ScancodeField, error) {
	ir, err := irp.Parse(irpSrc)
	if err != nil {
		return nil, err
	}
	widths, total, err := paramWidths(ir)
	if err != nil {
		return nil, err
	}

	fields := make([]ScancodeField, 0, len(ir.Parameters))
	shift := total
	for i, p := range ir.Parameters {
		if p.Name == "T" {
			continue
		}
		shift -= widths[i]
		fields = append(fields, ScancodeField{Name: p.Name, Width: uint8(widths[i]), Shift: uint8(shift)})
	}
	return fields, nil
}

// ScancodeWidth returns the total bit width ScancodeFields spans: the sum
// of every non-toggle parameter's declared width.
func (e Entry) ScancodeWidth() (uint8, error) {
	ir, err := irp.Parse(e.IRP)
	if err != nil {
		return 0, err
	}
	_, total, err := paramWidths(ir)
	if err != nil {
		return 0, err
	}
	return uint8(total), nil
}

// PackScancode binds a single kernel-style scancode onto e's IRP
// parameters, per ScancodeFields' layout.
func (e Entry) PackScancode(scancode uint64) (irp.Vartable, error) {
	fields, err := e.ScancodeFields()
	if err != nil {
		return nil, err
	}
	return PackScancodeFields(fields, scancode), nil
}

// PackScancodeFields binds scancode onto vars per fields' layout, as
// returned by ScancodeFields or ScancodeFieldsForIRP.
func PackScancodeFields(fields []ScancodeField, scancode uint64) irp.Vartable {
	vars := irp.NewVartable()
	for _, f := range fields {
		mask := uint64(1)<<uint(f.Width) - 1
		val := (scancode >> uint(f.Shift)) & mask
		vars.Set(f.Name, int64(val), f.Width)
	}
	return vars
}

// paramWidths evaluates each of ir's non-toggle parameter's Max against
// an empty Vartable (every catalog IRP's Max is a compile-time constant)
// and returns its bit width alongside the summed total.
func paramWidths(ir *irp.Irp) ([]int, int, error) {
	empty := irp.NewVartable()
	widths := make([]int, len(ir.Parameters))
	total := 0
	for i, p := range ir.Parameters {
		if p.Name == "T" {
			continue
		}
		max, _, err := irp.Eval(p.Max, empty)
		if err != nil {
			return nil, 0, err
		}
		w := bits.Len64(uint64(max))
		if w == 0 {
			w = 1
		}
		widths[i] = w
		total += w
	}
	return widths, total, nil
}
