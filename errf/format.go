package errf

import (
	"fmt"
	"strings"
)

var errTypeNames = map[ErrType]string{
	ErrTypeGeneric:     "generic",
	ErrTypeMemCorrupt:  "corrupted memory",
	ErrTypeCardRemoved: "card removed",
	ErrTypeException:   "exception",
	ErrTypeFailure:     "result failure",
	ErrTypeLogged:      "logged",
}

var exceptionTypeNames = map[ExceptionType]string{
	ExceptionPrefetchAbort:        "prefetch abort",
	ExceptionDataAbort:            "data abort",
	ExceptionUndefinedInstruction: "undefined instruction",
	ExceptionVFP:                  "VFP exception",
}

var errTypeDescriptions = map[ErrType]string{
	ErrTypeGeneric:     "The running application encountered an unrecoverable error.",
	ErrTypeMemCorrupt:  "The running application corrupted system memory.",
	ErrTypeCardRemoved: "The game card was removed while in use.",
	ErrTypeException:   "The running application raised a CPU exception.",
	ErrTypeLogged:      "The running application logged a non-fatal error.",
}

func errTypeName(t ErrType) string {
	if n, ok := errTypeNames[t]; ok {
		return n
	}

	return "invalid"
}

func exceptionTypeName(t ExceptionType) string {
	if n, ok := exceptionTypeNames[t]; ok {
		return n
	}

	return "invalid"
}

// registerDump renders the full 17-register file, two per line.
func registerDump(regs *CPURegisters) string {
	names := []string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
		"cpsr",
	}
	values := make([]uint32, 0, len(names))
	values = append(values, regs.R[:]...)
	values = append(values, regs.SP, regs.LR, regs.PC, regs.CPSR)

	var b strings.Builder
	for i, name := range names {
		fmt.Fprintf(&b, "%-9s %08x", name, values[i])
		if i%2 == 1 || i == len(names)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteString("   ")
		}
	}

	return b.String()
}

// Format renders a thrown record as the full-screen report body.
// lookup resolves a process id to a name and title id; it may return
// ok=false for processes that already exited.
func Format(info *FatalErrInfo, lookup func(pid uint32) (string, uint64, bool)) string {
	var b strings.Builder

	if info.Type == ErrTypeException {
		d := info.Exception()
		fmt.Fprintf(&b, "Error type:       exception (%s)\n\n",
			exceptionTypeName(d.Excep.Type))
	} else {
		fmt.Fprintf(&b, "Error type:       %s\n\n", errTypeName(info.Type))
	}

	fmt.Fprintf(&b, "Process ID:       %d\n", info.ProcID)

	if lookup != nil {
		if name, title, ok := lookup(info.ProcID); ok {
			fmt.Fprintf(&b, "Process name:     %s\n", name)
			fmt.Fprintf(&b, "Process title ID: 0x%016x\n", title)
		}
	}

	b.WriteByte('\n')

	switch info.Type {
	case ErrTypeException:
		d := info.Exception()
		b.WriteString(registerDump(&d.Regs))

		switch d.Excep.Type {
		case ExceptionPrefetchAbort, ExceptionDataAbort:
			fmt.Fprintf(&b, "%-9s %08x   %-9s %08x\n",
				"far", d.Excep.FAR, "fsr", d.Excep.FSR)
		case ExceptionVFP:
			fmt.Fprintf(&b, "%-9s %08x   %-9s %08x\n",
				"fpexc", d.Excep.FPEXC, "fpinst", d.Excep.FPINST)
			fmt.Fprintf(&b, "%-9s %08x\n", "fpinst2", d.Excep.FPINST2)
		}
		b.WriteByte('\n')

	case ErrTypeFailure:
		fmt.Fprintf(&b, "Reason:           %s\n\n", info.FailureMessage())

	default:
		fmt.Fprintf(&b, "Address:          0x%08x\n\n", info.PCAddr)
	}

	fmt.Fprintf(&b, "Error code:       0x%08x\n\n", info.ResCode)

	if desc, ok := errTypeDescriptions[info.Type]; ok {
		b.WriteString(desc)
		b.WriteByte('\n')
	}

	return b.String()
}
