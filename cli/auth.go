// ABOUTME: Authentication CLI commands
// ABOUTME: login, register, logout, whoami and change-password with hidden password prompts
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Duckiduc/omw-crm-sub001/api"
)

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// LoginCommand exchanges credentials for a token and stores the session.
func LoginCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		pw, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		*password = pw
	}

	user, err := client.Auth.Login(ctx, *email, *password)
	if err != nil {
		return describe(err)
	}
	printf("✓ Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

// RegisterCommand creates an account and logs it in.
func RegisterCommand(ctx context.Context, client *api.Client, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "Your name (required)")
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Password, at least 8 characters (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		pw, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		again, err := readPassword("Repeat password: ")
		if err != nil {
			return err
		}
		if pw != again {
			return fmt.Errorf("passwords do not match")
		}
		*password = pw
	}

	user, err := client.Auth.Register(ctx, *name, *email, *password)
	if err != nil {
		return describe(err)
	}
	printf("✓ Registered and logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func LogoutCommand(ctx context.Context, client *api.Client, _ []string) error {
	if err := client.Auth.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	printf("✓ Logged out\n")
	return nil
}

// WhoAmICommand refreshes and prints the current user.
func WhoAmICommand(ctx context.Context, client *api.Client, _ []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	user, err := client.Auth.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current user: %w", err)
	}
	printf("%s <%s>\n", user.Name, user.Email)
	printf("  Role: %s\n", user.Role)
	printf("  ID:   %s\n", user.ID)
	return nil
}

func ChangePasswordCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("change-password")
	current := fs.String("current", "", "Current password (prompted when omitted)")
	next := fs.String("new", "", "New password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *current == "" {
		if *current, err = readPassword("Current password: "); err != nil {
			return err
		}
	}
	if *next == "" {
		if *next, err = readPassword("New password: "); err != nil {
			return err
		}
	}

	if err := client.Auth.ChangePassword(ctx, *current, *next); err != nil {
		return describe(err)
	}
	printf("✓ Password changed\n")
	return nil
}
