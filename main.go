// ABOUTME: Entry point for the omw-crm client: CLI, TUI and MCP server
// ABOUTME: Routes commands to the cli and tui packages over one authenticated api client
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/cli"
	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/store"
	"github.com/Duckiduc/omw-crm-sub001/tui"
)

const version = "0.1.0"

type command func(ctx context.Context, client *api.Client, args []string) error

var authCommands = map[string]command{
	"login":           cli.LoginCommand,
	"register":        cli.RegisterCommand,
	"logout":          cli.LogoutCommand,
	"whoami":          cli.WhoAmICommand,
	"change-password": cli.ChangePasswordCommand,
}

var crmCommands = map[string]command{
	// Contacts
	"list-contacts":  cli.ListContactsCommand,
	"get-contact":    cli.GetContactCommand,
	"add-contact":    cli.AddContactCommand,
	"update-contact": cli.UpdateContactCommand,
	"set-status":     cli.SetStatusCommand,
	"delete-contact": cli.DeleteContactCommand,
	"tags":           cli.TagsCommand,

	// Companies
	"list-companies": cli.ListCompaniesCommand,
	"get-company":    cli.GetCompanyCommand,
	"add-company":    cli.AddCompanyCommand,
	"update-company": cli.UpdateCompanyCommand,
	"delete-company": cli.DeleteCompanyCommand,

	// Deals
	"stages":      cli.StagesCommand,
	"list-deals":  cli.ListDealsCommand,
	"get-deal":    cli.GetDealCommand,
	"add-deal":    cli.AddDealCommand,
	"update-deal": cli.UpdateDealCommand,
	"delete-deal": cli.DeleteDealCommand,

	// Activities
	"list-activities":   cli.ListActivitiesCommand,
	"get-activity":      cli.GetActivityCommand,
	"add-activity":      cli.AddActivityCommand,
	"update-activity":   cli.UpdateActivityCommand,
	"complete-activity": cli.CompleteActivityCommand,
	"delete-activity":   cli.DeleteActivityCommand,

	// Notes
	"list-notes":  cli.ListNotesCommand,
	"add-note":    cli.AddNoteCommand,
	"update-note": cli.UpdateNoteCommand,
	"delete-note": cli.DeleteNoteCommand,

	// Sharing
	"list-shares":     cli.ListSharesCommand,
	"shareable-users": cli.ShareableUsersCommand,
	"share":           cli.ShareCommand,
	"unshare":         cli.UnshareCommand,

	// Users (admin)
	"list-users":  cli.ListUsersCommand,
	"add-user":    cli.AddUserCommand,
	"update-user": cli.UpdateUserCommand,
	"delete-user": cli.DeleteUserCommand,
}

var vizGraphCommands = map[string]command{
	"company":  cli.VizGraphCompanyCommand,
	"pipeline": cli.VizGraphPipelineCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/omw-crm/config.toml)")
	apiURL := flag.String("api-url", "", "Backend base URL, e.g. http://localhost:3001/api")
	verbose := flag.Bool("verbose", false, "Log every request")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("omw-crm version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *verbose {
		cfg.API.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil && !errors.Is(err, flag.ErrHelp) {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	name, rest := args[0], args[1:]

	var handler command
	switch name {
	case "auth":
		handler = lookup("auth", authCommands, rest)
		rest = tail(rest)
	case "crm":
		handler = lookup("crm", crmCommands, rest)
		rest = tail(rest)
	case "viz":
		if len(rest) == 0 {
			usageError("viz requires a subcommand")
		}
		switch rest[0] {
		case "graph":
			handler = lookup("viz graph", vizGraphCommands, rest[1:])
			rest = tail(rest[1:])
		case "dashboard":
			handler = cli.VizDashboardCommand
			rest = rest[1:]
		default:
			usageError(fmt.Sprintf("unknown viz command: %s", rest[0]))
		}
	case "export":
		handler = cli.ExportCommand
	case "tui", "mcp":
	case "help":
		printUsage()
		return nil
	default:
		usageError(fmt.Sprintf("unknown command: %s", name))
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	session, err := api.NewSession(st)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	client := api.NewClient(cfg.API.BaseURL, session,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithVerbose(cfg.API.Verbose),
	)

	switch name {
	case "tui":
		return tui.Run(ctx, client, cfg.API.PageSize)
	case "mcp":
		return cli.MCPCommand(ctx, client, version)
	}
	return handler(ctx, client, rest)
}

// lookup resolves the subcommand in args[0], exiting with usage when unknown.
func lookup(group string, commands map[string]command, args []string) command {
	if len(args) == 0 {
		usageError(group + " requires a subcommand")
	}
	handler, ok := commands[args[0]]
	if !ok {
		usageError(fmt.Sprintf("unknown %s command: %s", group, args[0]))
	}
	return handler
}

func tail(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return args[1:]
}

func usageError(msg string) {
	fmt.Printf("Error: %s\n\n", msg)
	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`omw-crm v%s - CRM client for the terminal and AI assistants

USAGE:
  omw-crm [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: $XDG_CONFIG_HOME/omw-crm/config.toml)
  --api-url <url>        Backend base URL (overrides config and OMW_CRM_API_URL)
  --verbose              Log every request to stderr

COMMANDS:
  auth                   Sign in, register, sign out
  crm                    Contacts, companies, deals, activities, notes, shares, users
  tui                    Interactive terminal interface
  mcp                    Start MCP server on stdio for AI assistants
  viz                    Graphs and dashboard
  export                 Export to an Excel workbook

AUTH COMMANDS:
  omw-crm auth login --email <email>          Password is prompted
  omw-crm auth register --name <n> --email <e>
  omw-crm auth logout
  omw-crm auth whoami
  omw-crm auth change-password

CRM COMMANDS:
  %s

VIZ COMMANDS:
  omw-crm viz graph pipeline [--output <file>]
  omw-crm viz graph company [--output <file>] <company-id>
  omw-crm viz dashboard

EXPORT:
  omw-crm export [--output crm-export.xlsx] [--only contacts,companies,deals,activities]

Run any subcommand with --help to see its flags.

EXAMPLES:
  # Sign in once; the session is kept between runs
  omw-crm auth login --email jane@acme.com

  # Add a hot contact with tags
  omw-crm crm add-contact --name "John Smith" --email john@acme.com --status hot --tags vip,lead

  # Move a deal to negotiation
  omw-crm crm update-deal --stage Negotiation <deal-id>

  # Show overdue activities
  omw-crm crm list-activities --overdue

`, version, strings.Join(sortedKeys(crmCommands), "\n  "))
}

func sortedKeys(m map[string]command) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
