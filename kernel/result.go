package kernel

import "fmt"

// Result is a kernel result word. 0 is success; anything else encodes
// a failure the same way the console kernel does.
type Result uint32

const (
	ResultSuccess        Result = 0
	ResultInvalidHandle  Result = 0xD8E007F7
	ResultInvalidAddress Result = 0xE0E01BF5
	ResultInvalidSize    Result = 0xE0E01BEC
	ResultNotFound       Result = 0xD88007FA
	ResultBusy           Result = 0xD8A007F9
	ResultSessionClosed  Result = 0xC920181A
	ResultNotImplemented Result = 0xD900182F
)

func (r Result) Failed() bool {
	return r != ResultSuccess
}

func (r Result) String() string {
	return fmt.Sprintf("%#08x", uint32(r))
}
