package model

// Outcome é o resultado de uma execução, mapeado para o código de saída do processo.
type Outcome int

const (
	Success Outcome = iota
	PreconditionFailed
	PartialWarnings
	FindingsOverThreshold
	InternalError
)

// ExitCode: 0 sucesso, 1 erro interno, 2 pré-condição, 3 avisos, 4 limite de severidade.
func (o Outcome) ExitCode() int {
	switch o {
	case Success:
		return 0
	case PreconditionFailed:
		return 2
	case PartialWarnings:
		return 3
	case FindingsOverThreshold:
		return 4
	default:
		return 1
	}
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case PreconditionFailed:
		return "precondition-failed"
	case PartialWarnings:
		return "partial-with-warnings"
	case FindingsOverThreshold:
		return "findings-over-threshold"
	default:
		return "internal-error"
	}
}

// Worse devolve o outcome mais grave entre os dois.
func Worse(a, b Outcome) Outcome {
	if outcomeWeight(b) > outcomeWeight(a) {
		return b
	}
	return a
}

func outcomeWeight(o Outcome) int {
	switch o {
	case Success:
		return 0
	case PartialWarnings:
		return 1
	case FindingsOverThreshold:
		return 2
	case PreconditionFailed:
		return 3
	default:
		return 4
	}
}
