// internal/frame/descriptor.go
package frame

import "fmt"

// FuncReadHolding is the function code used for every read.
const FuncReadHolding byte = 0x03

// FuncWriteSingle is the function code used for writes.
const FuncWriteSingle byte = 0x06

// Descriptor describes one outstanding request.
// It is built fresh per request and never reused.
type Descriptor struct {
	Slave            byte
	Function         byte
	Start            uint16
	Count            uint16
	BytesPerRegister int
}

// ExpectedData is the number of data bytes a valid reply carries.
func (d Descriptor) ExpectedData() int {
	return int(d.Count) * d.BytesPerRegister
}

// ExpectedTotal is the exact byte length of a valid reply:
// slave, function, byte count, data, two CRC bytes.
func (d Descriptor) ExpectedTotal() int {
	return 5 + d.ExpectedData()
}

func (d Descriptor) String() string {
	return fmt.Sprintf("slave=%d fc=0x%02X start=%d count=%d", d.Slave, d.Function, d.Start, d.Count)
}

// Variant selects the request framing.
type Variant string

const (
	VariantRTU Variant = "rtu"
	VariantMMK Variant = "mmk"
)

// Build encodes a read request for d using variant v.
func Build(v Variant, d Descriptor) ([]byte, error) {
	switch v {
	case VariantRTU, "":
		return BuildRead(d), nil
	case VariantMMK:
		return BuildMMK(d), nil
	default:
		return nil, fmt.Errorf("frame: unknown variant %q", v)
	}
}
