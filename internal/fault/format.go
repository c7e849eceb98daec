package fault

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackBytes = 64 << 20

// Stack returns the stack of the calling goroutine, or of all goroutines when
// all is true. The buffer grows until the whole trace fits.
func Stack(all bool) []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, all)
		if n < len(buf) || len(buf) >= maxStackBytes {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

// FormatTrace is the default trace formatter captured by New.
func FormatTrace(trace []byte) string {
	return strings.TrimRight(string(trace), "\n")
}

// KindOf names the category of a fault: the dynamic type of the panic value.
func KindOf(fault any) string {
	return fmt.Sprintf("%T", fault)
}

func faultMessage(fault any) string {
	switch v := fault.(type) {
	case nil:
		return "none"
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

// FormatFault renders a fault as a fixed-shape text block:
//
//	Fault caught: (<kind>)
//	<trace, only when includeTrace>
//	Fault message: <message or "none">
//
// followed by one blank line when includeTrace is set. An empty kind falls
// back to KindOf(fault). The result depends only on the arguments.
func (c *Controller) FormatFault(kind string, fault any, trace []byte, includeTrace bool) string {
	if kind == "" {
		kind = KindOf(fault)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fault caught: (%s)\n", kind)
	if includeTrace && len(trace) > 0 {
		b.WriteString(c.formatTrace(trace))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Fault message: %s\n", faultMessage(fault))
	if includeTrace {
		b.WriteString("\n")
	}
	return b.String()
}
