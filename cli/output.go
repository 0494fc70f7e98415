// ABOUTME: Shared output helpers for CLI commands
// ABOUTME: Tables, pagination footers, field error printing and confirmation prompts
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

// Swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// fieldFlags maps form field names to the flag that sets them.
var fieldFlags = map[string]string{
	"companyId":         "company",
	"contactId":         "contact",
	"dealId":            "deal",
	"stageId":           "stage",
	"sharedWithUserId":  "user",
	"resourceType":      "type",
	"resourceId":        "id",
	"expectedCloseDate": "close-date",
	"dueDate":           "due",
	"currentPassword":   "current",
	"newPassword":       "new",
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func printf(format string, args ...any) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}

// printFooter writes "Page X of Y (N total)" and the flag for the next page.
func printFooter(p models.Pagination) {
	printf("\n%s (%d total)\n", p.Label(), p.Total)
	if p.CanNext() {
		printf("Next page: --page %d\n", p.Page+1)
	}
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func fmtDateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// requireLogin fails fast before any request is sent without a token.
func requireLogin(client *api.Client) error {
	if !client.Session().LoggedIn() {
		return fmt.Errorf("%w; run 'omw-crm auth login' first", api.ErrNotLoggedIn)
	}
	return nil
}

func requireAdmin(client *api.Client) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	if !client.Session().IsAdmin() {
		return fmt.Errorf("this command requires an admin account")
	}
	return nil
}

// describe turns validation failures into per-flag lines. Other errors pass through.
func describe(err error) error {
	var fields map[string]string
	var verrs validate.Errors
	var apiErr *api.Error
	switch {
	case errors.As(err, &verrs):
		fields = verrs
	case errors.As(err, &apiErr) && len(apiErr.Fields) > 0:
		fields = apiErr.Fields
	default:
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  --%s: %s", flagName(k), fields[k])
	}
	return errors.New(b.String())
}

func flagName(field string) string {
	if f, ok := fieldFlags[field]; ok {
		return f
	}
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// confirm asks a yes/no question on stdin unless yes is already set.
func confirm(question string, yes bool) bool {
	if yes {
		return true
	}
	printf("%s [y/N]: ", question)
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// positional returns the first positional argument or an error naming what is missing.
func positional(fs *flag.FlagSet, what string) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("%s is required", what)
	}
	return fs.Arg(0), nil
}

// stringFlag tracks whether a string flag was given so updates only send set fields.
type stringFlag struct {
	value string
	set   bool
}

func (f *stringFlag) String() string { return f.value }

func (f *stringFlag) Set(v string) error {
	f.value = v
	f.set = true
	return nil
}

func (f *stringFlag) ptr() *string {
	if !f.set {
		return nil
	}
	return &f.value
}
