package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

// Printer writes command results as text or JSON.
type Printer struct {
	Format string
	W      io.Writer
}

func (p *Printer) json() bool {
	return p.Format == "json"
}

func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.W)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Message prints a one-line confirmation, or {"message": ...} in JSON mode.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.json() {
		return p.JSON(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.W, msg)
	return err
}

func (p *Printer) Submissions(items []models.Aspirasi, pg *models.Pagination) error {
	if p.json() {
		if pg == nil {
			return p.JSON(items)
		}
		return p.JSON(models.Page{Data: items, Pagination: *pg})
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(p.W, "Belum ada aspirasi.")
		return err
	}
	tw := tabwriter.NewWriter(p.W, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTANGGAL\tSTATUS\tNAMA\tKELAS\tASPIRASI")
	for _, a := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.FormattedDate, a.Status, a.Nama, a.Kelas, truncate(oneLine(a.Aspirasi), 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if pg != nil {
		_, err := fmt.Fprintf(p.W, "\nHalaman %d dari %d (%d aspirasi)\n", pg.Page, pg.Pages, pg.Total)
		return err
	}
	return nil
}

func (p *Printer) Submission(a *models.Aspirasi) error {
	if p.json() {
		return p.JSON(a)
	}
	tw := tabwriter.NewWriter(p.W, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", a.ID)
	fmt.Fprintf(tw, "Tanggal:\t%s\n", a.FormattedDate)
	fmt.Fprintf(tw, "Status:\t%s\n", a.Status)
	fmt.Fprintf(tw, "Nama:\t%s\n", a.Nama)
	fmt.Fprintf(tw, "Kelas:\t%s\n", a.Kelas)
	fmt.Fprintf(tw, "Aspirasi:\t%s\n", a.Aspirasi)
	return tw.Flush()
}

func (p *Printer) Stats(st *models.Stats) error {
	if p.json() {
		return p.JSON(st)
	}
	tw := tabwriter.NewWriter(p.W, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total\t%d\t\n", st.Total)
	fmt.Fprintf(tw, "Pending\t%d\t\n", st.Pending)
	fmt.Fprintf(tw, "Reviewed\t%d\t\n", st.Reviewed)
	fmt.Fprintf(tw, "Resolved\t%d\t\n", st.Resolved)
	fmt.Fprintf(tw, "Anonim\t%d\t\n", st.Anonymous)
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
