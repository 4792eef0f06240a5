package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderStatement(ctx context.Context, data StatementData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, "Financial statement", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.IssueDate, props.Text{Align: align.Right, Top: 4}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New(data.ProjectTitle, props.Text{Style: fontstyle.Bold}),
			text.New("Project: "+data.ProjectID, props.Text{Top: 5}),
			text.New("Status: "+data.PaymentStatus, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Manager: "+data.ManagerName, props.Text{Align: align.Right}),
			text.New("Freelancer: "+data.FreelancerName, props.Text{Top: 5, Align: align.Right}),
		),
	)

	summary := [][2]string{
		{"Accepted price", data.AcceptedPrice},
		{"Estimated budget", data.EstimatedBudget},
		{"Amount paid", data.AmountPaid},
		{"Remaining", data.Remaining},
	}
	for _, line := range summary {
		m.AddRow(7,
			col.New(6),
			text.NewCol(3, line[0], props.Text{Size: 9}),
			text.NewCol(3, line[1], props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9, Top: 5}),
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9, Top: 5}),
		text.NewCol(2, "Recorded by", props.Text{Style: fontstyle.Bold, Size: 9, Top: 5}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Top: 5, Align: align.Right}),
	)

	if len(data.Entries) == 0 {
		m.AddRow(8, text.NewCol(12, "No updates recorded.", props.Text{Size: 9}))
	}
	for _, entry := range data.Entries {
		m.AddRow(8,
			text.NewCol(2, entry.Date, props.Text{Size: 9}),
			text.NewCol(5, entry.Description, props.Text{Size: 9}),
			text.NewCol(2, entry.RecordedBy, props.Text{Size: 9}),
			text.NewCol(3, entry.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
