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
	"github.com/smallbiznis/recaudo/internal/receipt/domain"
)

type Renderer struct{}

func New() domain.Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(ctx context.Context, data domain.Data) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, data.Issuer, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Recibo de pago", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Recibo: "+data.Number, props.Text{Top: 0}),
			text.New("Emitido: "+data.IssuedAt, props.Text{Top: 4}),
			text.New("Validado: "+data.ValidatedAt, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Metodo: "+data.Method, props.Text{Top: 0, Align: align.Right}),
			text.New("Operacion: "+data.ReferenceNumber, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(24,
		col.New(12).Add(
			text.New("Cliente", props.Text{Style: fontstyle.Bold}),
			text.New(data.ClientCode+"  "+data.ClientName, props.Text{Top: 5}),
			text.New("DNI "+data.ClientDNI, props.Text{Top: 9}),
			text.New(data.ClientAddress, props.Text{Top: 13}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Mes", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Importe", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(8, line.BillingMonth, props.Text{Size: 9}),
			text.NewCol(4, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if data.Credit != "" {
		m.AddRow(8,
			col.New(6),
			text.NewCol(3, "Saldo a favor", props.Text{Size: 9}),
			text.NewCol(3, data.Credit, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Total pagado", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, data.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
