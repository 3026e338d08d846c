package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	docformat "github.com/smallbiznis/spk/internal/document/format"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

const title = "SURAT PERINTAH KERJA (SPK)"

var terms = []string{
	"Vendor wajib menyelesaikan pekerjaan sesuai dengan spesifikasi yang telah disepakati.",
	"Pembayaran akan dilakukan sesuai dengan termin yang tercantum dalam SPK ini.",
	"Vendor bertanggung jawab atas kualitas pekerjaan yang dilakukan.",
	"Perubahan scope pekerjaan harus mendapat persetujuan tertulis dari kedua belah pihak.",
}

var termLabels = map[domain.Term]string{
	domain.TermDP:       "Down Payment (DP)",
	domain.TermProgress: "Progress Payment",
	domain.TermFinal:    "Final Payment",
}

var (
	sectionStyle = props.Text{Size: 11, Style: fontstyle.Bold, Top: 3}
	labelStyle   = props.Text{Size: 9, Style: fontstyle.Bold}
	valueStyle   = props.Text{Size: 10}
	cellStyle    = props.Text{Size: 10, Top: 1}
	cellRight    = props.Text{Size: 10, Top: 1, Align: align.Right}
)

// Renderer turns a work order snapshot into an SPK document.
type Renderer interface {
	Render(ctx context.Context, w domain.WorkOrder) ([]byte, error)
}

// MarotoRenderer renders A4 PDFs with maroto. Output depends only on the
// snapshot: the document creation date is the work order's creation time.
type MarotoRenderer struct{}

func New() Renderer {
	return &MarotoRenderer{}
}

func (r *MarotoRenderer) Render(ctx context.Context, w domain.WorkOrder) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithMargins(15, 15, 15).
		WithCreationDate(w.CreatedAt.UTC()).
		WithTitle(title+" "+w.Number, false).
		WithAuthor(w.CreatedBy, false).
		WithPageNumber(props.PageNumber{
			Pattern: "Halaman {current} dari {total}",
			Place:   props.RightBottom,
			Size:    8,
		}).
		Build()

	m := maroto.New(cfg)
	addHeader(m, w)
	addVendor(m, w)
	addProject(m, w)
	addSplit(m, w)
	addNotes(m, w)
	addTerms(m)
	addSignatures(m, w)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate spk document: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, w domain.WorkOrder) {
	m.AddRow(12, text.NewCol(12, title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}))
	m.AddRow(6, text.NewCol(12, "No: "+w.Number, props.Text{Size: 10, Align: align.Center}))
	m.AddRow(6, text.NewCol(12, "Tanggal: "+docformat.LongDate(w.CreatedAt), props.Text{Size: 10, Align: align.Center}))
	m.AddRow(4, line.NewCol(12))
}

func addVendor(m core.Maroto, w domain.WorkOrder) {
	m.AddRow(9, text.NewCol(12, "INFORMASI VENDOR", sectionStyle))
	addField(m, "Nama Vendor:", w.VendorName)
	if w.VendorEmail != nil {
		addField(m, "Email:", *w.VendorEmail)
	}
	if w.VendorPhone != nil {
		addField(m, "Telepon:", *w.VendorPhone)
	}
}

func addProject(m core.Maroto, w domain.WorkOrder) {
	m.AddRow(9, text.NewCol(12, "DETAIL PROYEK", sectionStyle))
	addField(m, "Nama Proyek:", w.ProjectName)
	if w.ProjectDescription != nil {
		addField(m, "Deskripsi:", *w.ProjectDescription)
	}
	addField(m, "Nilai Kontrak:", docformat.Currency(w.ContractValue, w.Currency))
	addField(m, "Mata Uang:", w.Currency)
	addField(m, "Tanggal Mulai:", docformat.LongDate(w.StartDate))
	if w.EndDate != nil {
		addField(m, "Tanggal Selesai:", docformat.LongDate(*w.EndDate))
	}
}

func addSplit(m core.Maroto, w domain.WorkOrder) {
	m.AddRow(9, text.NewCol(12, "RINCIAN PEMBAYARAN", sectionStyle))
	m.AddRow(7,
		text.NewCol(5, "Termin", labelStyle),
		text.NewCol(3, "Persentase", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(4, "Jumlah", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	rows := []struct {
		term   domain.Term
		pct    decimal.Decimal
		amount decimal.Decimal
	}{
		{domain.TermDP, w.DpPercentage, w.DpAmount},
		{domain.TermProgress, w.ProgressPercentage, w.ProgressAmount},
		{domain.TermFinal, w.FinalPercentage, w.FinalAmount},
	}
	for _, row := range rows {
		m.AddRow(7,
			text.NewCol(5, termLabels[row.term], cellStyle),
			text.NewCol(3, docformat.Percent(row.pct), cellRight),
			text.NewCol(4, docformat.Currency(row.amount, w.Currency), cellRight),
		)
	}

	m.AddRow(2, line.NewCol(12))
	total := props.Text{Size: 10, Top: 1, Style: fontstyle.Bold}
	totalRight := props.Text{Size: 10, Top: 1, Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(7,
		text.NewCol(5, "TOTAL", total),
		text.NewCol(3, "100%", totalRight),
		text.NewCol(4, docformat.Currency(w.ContractValue, w.Currency), totalRight),
	)
}

func addNotes(m core.Maroto, w domain.WorkOrder) {
	if w.Notes == nil || *w.Notes == "" {
		return
	}
	m.AddRow(9, text.NewCol(12, "CATATAN", sectionStyle))
	m.AddAutoRow(text.NewCol(12, *w.Notes, valueStyle))
}

func addTerms(m core.Maroto) {
	m.AddRow(9, text.NewCol(12, "SYARAT DAN KETENTUAN", sectionStyle))
	for _, clause := range terms {
		m.AddAutoRow(text.NewCol(12, "- "+clause, props.Text{Size: 9, Top: 1}))
	}
}

func addSignatures(m core.Maroto, w domain.WorkOrder) {
	m.AddRow(20, col.New(12))
	m.AddRow(6,
		text.NewCol(6, "Vendor", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center}),
		text.NewCol(6, "Authorized By", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center}),
	)
	m.AddRow(20, col.New(12))
	m.AddRow(6,
		text.NewCol(6, w.VendorName, props.Text{Size: 10, Align: align.Center}),
		text.NewCol(6, w.CreatedBy, props.Text{Size: 10, Align: align.Center}),
	)
}

func addField(m core.Maroto, label, value string) {
	m.AddRow(6,
		text.NewCol(4, label, labelStyle),
		text.NewCol(8, value, valueStyle),
	)
}
