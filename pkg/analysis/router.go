package analysis

// Branch names the work that follows classification.
type Branch string

const (
	BranchExtract   Branch = "extractor"
	BranchSummarize Branch = "summarizer"
	BranchReject    Branch = "reject"
)

// Route maps a classification to its branch. It is total: every value,
// including the empty string and unrecognised tokens, lands on a branch,
// and everything but extract and summarize is rejected.
func Route(t Task) Branch {
	switch t {
	case TaskExtract:
		return BranchExtract
	case TaskSummarize:
		return BranchSummarize
	default:
		return BranchReject
	}
}

// Node names used in Routes.
const (
	NodeClassifier = "classifier"
	NodeFormatter  = "formatter"
	NodeEnd        = "end"
)

// Transition is one edge of the orchestration state machine.
type Transition struct {
	From  string
	To    string
	Label string // empty means unconditional
}

// Routes describes the static state machine Run executes.
func Routes() []Transition {
	return []Transition{
		{From: NodeClassifier, To: string(BranchExtract), Label: "task == extract"},
		{From: NodeClassifier, To: string(BranchSummarize), Label: "task == summarize"},
		{From: NodeClassifier, To: string(BranchReject), Label: "otherwise"},
		{From: string(BranchExtract), To: NodeFormatter},
		{From: NodeFormatter, To: NodeEnd},
		{From: string(BranchSummarize), To: NodeEnd},
		{From: string(BranchReject), To: NodeEnd},
	}
}
