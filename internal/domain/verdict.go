package domain

// VerdictKind is the closed set of row-processing outcomes.
type VerdictKind int

const (
	VerdictReady VerdictKind = iota
	VerdictSkip
	VerdictError
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictReady:
		return "ready"
	case VerdictSkip:
		return "skip"
	case VerdictError:
		return "error"
	}
	return "unknown"
}

// Verdict is the result of processing one row: exactly one of a send-ready
// payload, an intentional skip, or a row-local error.
type Verdict struct {
	Kind    VerdictKind
	Payload map[string]any
	Reason  string
}

func Ready(payload map[string]any) Verdict {
	return Verdict{Kind: VerdictReady, Payload: payload}
}

func Skip(reason string) Verdict {
	return Verdict{Kind: VerdictSkip, Reason: reason}
}

func Errored(reason string) Verdict {
	return Verdict{Kind: VerdictError, Reason: reason}
}
