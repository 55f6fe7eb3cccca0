package domain

import "fmt"

type Stage string

const (
	StageSearching  Stage = "searching"
	StageFound      Stage = "found"
	StageAnalyzing  Stage = "analyzing"
	StageResponding Stage = "responding"
	StageWaiting    Stage = "waiting"
)

type SearchProgress struct {
	Stage          Stage `json:"stage"`
	ResultsCount   int   `json:"resultsCount,omitempty"`
	ElapsedSeconds int   `json:"elapsedTime,omitempty"`
	WaitSeconds    int   `json:"waitSeconds,omitempty"`
}

// Label is the status line shown to the user for the current stage.
func (p SearchProgress) Label() string {
	switch p.Stage {
	case StageSearching:
		return "Buscando informações"
	case StageFound:
		if p.ResultsCount == 1 {
			return "1 fonte encontrada"
		}
		return fmt.Sprintf("%d fontes encontradas", p.ResultsCount)
	case StageAnalyzing:
		return "Analisando fontes"
	case StageResponding:
		return "Gerando resposta"
	case StageWaiting:
		if p.WaitSeconds > 0 {
			return fmt.Sprintf("Processando dados (%ds)", p.WaitSeconds)
		}
		return "Processando dados"
	}
	return ""
}

type PipelineEventKind int

const (
	EventSearchCompleted PipelineEventKind = iota + 1
	EventRetrying
)

// PipelineEvent is emitted by the response orchestrator while a turn runs.
type PipelineEvent struct {
	Kind         PipelineEventKind
	ResultsCount int
	WaitSeconds  int
	Attempt      int
}

type RetryPolicy string

const (
	RetryCompletion RetryPolicy = "completion"
	RetryFullTurn   RetryPolicy = "full"
)
