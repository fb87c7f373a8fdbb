package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/JonMunkholm/PayrollDash/internal/bulkimport"
	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/tableview"
)

func registerCommands(p *flags.Parser) {
	must := func(_ *flags.Command, err error) {
		if err != nil {
			panic(err)
		}
	}
	must(p.AddCommand("login", "Sign in to the backend", "Signs in and stores the bearer token in the token file.", &loginCommand{}))
	must(p.AddCommand("logout", "Sign out", "Ends the backend session and removes the stored token.", &logoutCommand{}))
	must(p.AddCommand("companies", "List companies", "", &listCommand{key: "companies"}))
	must(p.AddCommand("employees", "List employees of a company", "", &listCommand{key: "employees"}))
	must(p.AddCommand("payrolls", "List payrolls", "Lists the payrolls of an employee, or of the whole company when no employee is given.", &listCommand{key: "payrolls"}))
	must(p.AddCommand("nfts", "List payroll NFTs", "", &listCommand{key: "nfts"}))
	must(p.AddCommand("import", "Bulk import payrolls from a JSON file", "Validates the file, prints the preview and submits the valid records when --yes is given.", &importCommand{}))
	must(p.AddCommand("mint", "Queue, retry or inspect a payroll mint", "", &mintCommand{}))
}

type loginCommand struct {
	Email    string `short:"e" long:"email" env:"PAYROLL_EMAIL" required:"true" description:"account e-mail"`
	Password string `short:"p" long:"password" env:"PAYROLL_PASSWORD" required:"true" description:"account password"`
}

func (c *loginCommand) Execute([]string) error {
	s, err := open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.service.Login(ctx, strings.TrimSpace(c.Email), c.Password); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Giriş yapıldı. Token %s dosyasında saklanıyor.\n", s.creds.Path())
	return nil
}

type logoutCommand struct{}

func (c *logoutCommand) Execute([]string) error {
	s, err := open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := s.service.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Çıkış yapıldı.")
	return nil
}

// scopeFlags pick the company and employee a command works on.
type scopeFlags struct {
	Company  string `short:"c" long:"company" description:"company id"`
	Employee string `short:"E" long:"employee" description:"employee id"`
}

type listCommand struct {
	key string

	scopeFlags
	Status   string `short:"s" long:"status" description:"mint status filter (pending, queued, minting, minted, failed)"`
	Search   string `short:"q" long:"search" description:"search text"`
	Sort     string `long:"sort" description:"column key to sort by"`
	Desc     bool   `long:"desc" description:"sort descending"`
	Page     int    `long:"page" default:"1" description:"page number"`
	PageSize int    `long:"page-size" description:"rows per page"`
}

// listingKey maps the command onto a registered listing; employee-scoped
// listings fall back to their company-wide variant without --employee.
func (c *listCommand) listingKey() string {
	switch c.key {
	case "payrolls":
		if c.Employee == "" {
			return "company_payrolls"
		}
	case "nfts":
		if c.Employee == "" {
			return "company_nfts"
		}
		return "employee_nfts"
	}
	return c.key
}

func (c *listCommand) params() (core.ListingParams, error) {
	p := core.ListingParams{CompanyID: c.Company, EmployeeID: c.Employee}
	if c.Status != "" {
		st, ok := core.ParseMintStatus(c.Status)
		if !ok {
			return p, fmt.Errorf("%w: %q", core.ErrInvalidStatus, c.Status)
		}
		p.Status = st
	}
	return p, nil
}

func (c *listCommand) query() tableview.Query {
	q := tableview.Query{
		Search:   c.Search,
		SortKey:  c.Sort,
		SortDir:  tableview.Asc,
		Page:     c.Page,
		PageSize: c.PageSize,
	}
	if c.Desc {
		q.SortDir = tableview.Desc
	}
	return q
}

func (c *listCommand) Execute([]string) error {
	p, err := c.params()
	if err != nil {
		return err
	}
	s, err := open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	page, err := s.service.Listing(ctx, c.listingKey(), p, c.query())
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(stdout, page)
	}
	return printPage(stdout, page.Page)
}

// printPage writes a page as an aligned text table followed by a footer.
func printPage(w io.Writer, page tableview.PageResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	labels := make([]string, len(page.Headers))
	for i, h := range page.Headers {
		label := h.Label
		if h.Active {
			if h.Direction == tableview.Desc {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		labels[i] = label
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))

	if page.Empty {
		fmt.Fprintln(tw, page.EmptyMessage)
	}
	for _, row := range page.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = oneLine(cell.Display)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nSayfa %d / %d · %d kayıt\n", page.Page, page.TotalPages, page.VisibleRows)
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type importCommand struct {
	scopeFlags
	Yes  bool `short:"y" long:"yes" description:"submit the valid records after the preview"`
	Args struct {
		File string `positional-arg-name:"FILE" required:"true" description:"JSON file with payroll records"`
	} `positional-args:"yes"`
}

func (c *importCommand) Execute([]string) error {
	if c.Company == "" {
		return core.ErrMissingImportKey
	}
	f, err := os.Open(c.Args.File)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sess, err := s.service.StartImport(ctx, core.ImportRequest{
		CompanyID:  c.Company,
		EmployeeID: c.Employee,
		FileName:   filepath.Base(c.Args.File),
		Body:       f,
	})
	if err != nil {
		return err
	}
	printPreview(stdout, sess.Preview)

	if !c.Yes {
		fmt.Fprintln(stdout, "\nKayıtları göndermek için --yes ile tekrar çalıştırın.")
		return nil
	}

	if _, err := s.service.ConfirmImport(ctx, sess.ID); err != nil {
		return err
	}
	updates, err := s.service.SubscribeImport(sess.ID)
	if err != nil {
		return err
	}
	for p := range updates {
		fmt.Fprintf(stdout, "\r%d / %d gönderildi (%%%d)", p.Processed, p.Total, p.Percent())
	}
	fmt.Fprintln(stdout)

	res, err := s.service.ImportResult(ctx, sess.ID)
	if res != nil {
		printResult(stdout, res)
	}
	return err
}

func printPreview(w io.Writer, p *bulkimport.Preview) {
	fmt.Fprintf(w, "%s: %d kayıt, %d geçerli, %d hatalı\n", p.FileName, p.Total, p.ValidCount, p.InvalidCount)
	if len(p.InvalidItems) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Sıra\tKayıt\tHatalar")
	for _, item := range p.InvalidItems {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", item.Index, oneLine(item.Summary), strings.Join(item.Errors, "; "))
	}
	_ = tw.Flush()
}

func printResult(w io.Writer, r *bulkimport.Result) {
	fmt.Fprintf(w, "Başarılı: %d, başarısız: %d, parça: %d\n", r.Success, r.Failed, r.Chunks)
	if r.BatchID != "" {
		fmt.Fprintf(w, "Grup: %s\n", r.BatchID)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}

type mintCommand struct {
	scopeFlags
	Payroll string `short:"P" long:"payroll" required:"true" description:"payroll id"`
	Args    struct {
		Action string `positional-arg-name:"ACTION" required:"true" description:"queue, retry, status or decrypt"`
	} `positional-args:"yes"`
}

func (c *mintCommand) Execute([]string) error {
	ref := core.PayrollRef{CompanyID: c.Company, EmployeeID: c.Employee, PayrollID: c.Payroll}
	s, err := open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var state core.MintState
	switch c.Args.Action {
	case "queue":
		state, err = s.service.QueueMint(ctx, ref)
	case "retry":
		state, err = s.service.RetryMint(ctx, ref)
	case "status":
		state, err = s.service.MintStatusOf(ctx, ref)
	case "decrypt":
		doc, derr := s.service.DecryptPayroll(ctx, ref)
		if derr != nil {
			return derr
		}
		return printJSON(stdout, doc)
	default:
		return errors.New("unknown mint action")
	}
	if err != nil {
		return err
	}

	if opts.JSON {
		state.Raw = nil
		return printJSON(stdout, state)
	}
	fmt.Fprintf(stdout, "Durum: %s\n", state.Status.Label())
	if state.TxHash != "" {
		fmt.Fprintf(stdout, "İşlem: %s\n", state.TxHash)
	}
	if state.TokenID != "" {
		fmt.Fprintf(stdout, "Token: %s\n", state.TokenID)
	}
	if state.Error != "" {
		fmt.Fprintf(stdout, "Hata: %s\n", state.Error)
	}
	return nil
}
