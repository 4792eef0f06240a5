package pdf

import (
	"context"
)

// Provider renders printable documents.
type Provider interface {
	RenderStatement(ctx context.Context, data StatementData) ([]byte, error)
}

// StatementData is the preformatted content of a financial statement. Amounts
// are already rendered for display.
type StatementData struct {
	ProjectTitle    string
	ProjectID       string
	FreelancerName  string
	ManagerName     string
	IssueDate       string
	AcceptedPrice   string
	EstimatedBudget string
	AmountPaid      string
	Remaining       string
	PaymentStatus   string

	Entries []StatementEntry
}

type StatementEntry struct {
	Date        string
	Description string
	Amount      string
	RecordedBy  string
}
