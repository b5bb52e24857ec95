package printer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const (
	dateTimeLayout = "Jan 2, 2006 15:04"
	qrImageName    = "reference_qr"
	qrSize         = 22.0
	referenceBase  = "warehouse-core://"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// PDFPrinter writes A4 PDF reports into a directory
type PDFPrinter struct {
	dir    string
	logger *logrus.Logger
}

// NewPDFPrinter creates the output directory if needed
func NewPDFPrinter(dir string, logger *logrus.Logger) (*PDFPrinter, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create report directory")
	}
	return &PDFPrinter{dir: dir, logger: logger}, nil
}

type column struct {
	header string
	width  float64
	align  string
}

// document wraps a gofpdf instance with the report header and footer
type document struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

func newDocument(title, subtitle, reference string, meta Meta) (*document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	d := &document{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}

	qrPng, err := qrcode.Encode(reference, qrcode.Low, 256)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reference qr code")
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(qrPng))

	footer := fmt.Sprintf("Printed by %s on %s", meta.PrintedBy, meta.PrintedAt.Format(dateTimeLayout))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, d.translate(footer), "", 0, "L", false, 0, "")
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.ImageOptions(qrImageName, 210-15-qrSize, 12, qrSize, qrSize, false, opts, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(150, 9, d.translate(title), "", 1, "L", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(150, 5, d.translate(subtitle), "", "L", false)
	}
	pdf.SetY(15 + qrSize + 4)

	return d, pdf.Error()
}

func (d *document) table(columns []column, rows [][]string) {
	pdf := d.pdf

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, c.header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	header()
	if len(rows) == 0 {
		total := 0.0
		for _, c := range columns {
			total += c.width
		}
		pdf.CellFormat(total, 7, "No transactions", "1", 1, "C", false, 0, "")
		return
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range rows {
		if pdf.GetY()+6 > pageHeight-bottom-5 {
			pdf.AddPage()
			header()
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 6, d.fit(row[i], c.width-2), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit translates s and truncates it to the given width
func (d *document) fit(s string, width float64) string {
	s = d.translate(s)
	if d.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && d.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (d *document) save(path string) error {
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func (p *PDFPrinter) path(kind, name string, meta Meta) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "report"
	}
	return filepath.Join(p.dir, fmt.Sprintf("%s-%s-%s.pdf", kind, slug, meta.PrintedAt.UTC().Format("20060102T150405.000")))
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// PrintItem renders an item's ledger, most recent entry first
func (p *PDFPrinter) PrintItem(ctx context.Context, report ItemReport, meta Meta) (string, error) {
	if report.Item == nil {
		return "", errors.New("item report has no item")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	warehouseName := report.Item.WarehouseID
	if report.Warehouse != nil {
		warehouseName = report.Warehouse.Name
	}

	subtitle := fmt.Sprintf("Warehouse: %s\nCurrent quantity: %d", warehouseName, report.Item.Quantity)
	doc, err := newDocument("Item Report: "+report.Item.Name, subtitle, referenceBase+"item/"+report.Item.ID, meta)
	if err != nil {
		return "", err
	}

	columns := []column{
		{"Date", 36, "L"}, {"Type", 30, "L"}, {"Change", 18, "R"},
		{"Before", 18, "R"}, {"After", 18, "R"}, {"Comment", 60, "L"},
	}
	rows := make([][]string, 0, len(report.History))
	for _, e := range report.History {
		rows = append(rows, []string{
			e.Timestamp.Format(dateTimeLayout), e.Type.Label(), signed(e.Change),
			strconv.Itoa(e.QuantityBefore), strconv.Itoa(e.QuantityAfter), e.Comment,
		})
	}
	doc.table(columns, rows)

	path := p.path("item", report.Item.Name, meta)
	if err := doc.save(path); err != nil {
		return "", err
	}

	p.logger.WithFields(logrus.Fields{"item_id": report.Item.ID, "path": path}).Info("item report printed")
	return path, nil
}

// PrintWarehouse renders the active stock list of a warehouse
func (p *PDFPrinter) PrintWarehouse(ctx context.Context, report WarehouseReport, meta Meta) (string, error) {
	if report.Warehouse == nil {
		return "", errors.New("warehouse report has no warehouse")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := newDocument("Warehouse Report: "+report.Warehouse.Name, report.Warehouse.Description, referenceBase+"warehouse/"+report.Warehouse.ID, meta)
	if err != nil {
		return "", err
	}

	columns := []column{{"Item", 140, "L"}, {"Quantity", 40, "R"}}
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, []string{item.Name, strconv.Itoa(item.Quantity)})
	}
	doc.table(columns, rows)

	path := p.path("warehouse", report.Warehouse.Name, meta)
	if err := doc.save(path); err != nil {
		return "", err
	}

	p.logger.WithFields(logrus.Fields{"warehouse_id": report.Warehouse.ID, "path": path}).Info("warehouse report printed")
	return path, nil
}

// PrintTransactions renders a flattened transaction feed
func (p *PDFPrinter) PrintTransactions(ctx context.Context, report TransactionsReport, meta Meta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	title := report.Title
	if title == "" {
		title = "Transactions"
	}

	reference := referenceBase + "transactions?title=" + url.QueryEscape(title)
	doc, err := newDocument(title, fmt.Sprintf("%d transactions", len(report.Transactions)), reference, meta)
	if err != nil {
		return "", err
	}

	columns := []column{
		{"Date", 32, "L"}, {"Warehouse", 32, "L"}, {"Item", 34, "L"}, {"Type", 26, "L"},
		{"Change", 16, "R"}, {"After", 14, "R"}, {"Comment", 26, "L"},
	}
	rows := make([][]string, 0, len(report.Transactions))
	for _, tx := range report.Transactions {
		rows = append(rows, []string{
			tx.Timestamp.Format(dateTimeLayout), tx.WarehouseName, tx.ItemName, tx.Type.Label(),
			signed(tx.Change), strconv.Itoa(tx.QuantityAfter), tx.Comment,
		})
	}
	doc.table(columns, rows)

	path := p.path("transactions", title, meta)
	if err := doc.save(path); err != nil {
		return "", err
	}

	p.logger.WithFields(logrus.Fields{"transactions": len(report.Transactions), "path": path}).Info("transactions report printed")
	return path, nil
}
