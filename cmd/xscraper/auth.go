package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xscraper/pkg/auth"
	"xscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X session cookies",
	Long: `Manage stored X session cookies securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file (fallback)
  - Environment variables XSCRAPER_AUTH_TOKEN and XSCRAPER_CSRF_TOKEN

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session cookies securely",
	Long: `Store the auth_token and ct0 cookies of a logged-in browser session.

You can type both values, or paste a whole Cookie header and let xscraper
pick them out. Values are hidden as you type.`,
	Example: `  # Interactive login
  xscraper auth login

  # Login with username
  xscraper auth login myhandle`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored session cookies.

If no username is provided, you will be shown a list of stored accounts
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked cookie values.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

// prompter reads answers from stdin, hiding secrets when stdin is a terminal
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
	fd     int
}

func newPrompter() *prompter {
	return &prompter{reader: bufio.NewReader(os.Stdin), out: os.Stdout, fd: int(os.Stdin.Fd())}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	input, err := p.reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) secret(question string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.ask(question)
	}
	fmt.Fprint(p.out, question)
	value, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(value)), nil
}

func (p *prompter) confirm(question string) bool {
	answer, _ := p.ask(question)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// readCookies asks for the auth cookie, accepting a pasted Cookie header in
// its place. The CSRF token is asked for only when the header lacked it.
func readCookies(p *prompter) (authToken, csrfToken string, err error) {
	for {
		input, err := p.secret("auth_token cookie (or a full Cookie header): ")
		if err != nil {
			return "", "", err
		}
		if strings.EqualFold(input, "help") {
			auth.WriteCookieGuide(p.out)
			continue
		}
		if strings.Contains(input, "=") {
			authToken, csrfToken = auth.ParseCookieHeader(input)
		} else {
			authToken = input
		}
		if authToken != "" {
			break
		}
		fmt.Fprintln(p.out, "No auth_token found in that input.")
	}

	if csrfToken == "" {
		csrfToken, err = p.secret("ct0 cookie: ")
		if err != nil {
			return "", "", err
		}
	}
	return authToken, csrfToken, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	p := newPrompter()
	auth.WriteQuickGuide(p.out)
	fmt.Fprintln(p.out)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else if username, err = p.ask("X username: "); err != nil {
		return err
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		ui.PrintError("Username is required")
		return fmt.Errorf("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		if !p.confirm(fmt.Sprintf("Account '%s' already exists. Update credentials? (y/N): ", username)) {
			return nil
		}
	}

	authToken, csrfToken, err := readCookies(p)
	if err != nil {
		return err
	}
	userAgent, _ := p.ask("User agent (Enter for default): ")

	account := &auth.Account{
		Username:  username,
		AuthToken: authToken,
		CSRFToken: csrfToken,
		UserAgent: userAgent,
	}
	if err := account.Validate(); err != nil {
		ui.PrintError("Invalid cookies", err.Error())
		return err
	}

	sanitized := auth.SanitizeAccount(account)
	fmt.Fprintln(p.out, "\nSummary:")
	fmt.Fprintf(p.out, "  Username:   %s\n", sanitized.Username)
	fmt.Fprintf(p.out, "  auth_token: %s\n", sanitized.AuthToken)
	fmt.Fprintf(p.out, "  ct0:        %s\n", sanitized.CSRFToken)

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		return err
	}
	ui.PrintSuccess("Account saved: " + username)

	fmt.Fprintln(p.out, "\nUse it with:")
	fmt.Fprintf(p.out, "  xscraper harvest --query golang --account %s\n", username)
	fmt.Fprintln(p.out, "\nNever share your credentials or config files!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	if len(args) == 1 {
		if err := manager.Delete(args[0]); err != nil {
			ui.PrintError("Failed to remove account", err.Error())
			return err
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored accounts found")
		return nil
	}

	p := newPrompter()
	fmt.Fprintln(p.out, "Select account to remove:")
	for i, account := range accounts {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, account.Username)
	}
	fmt.Fprintf(p.out, "  0. Cancel\n\n")

	input, _ := p.ask("Choice: ")
	var choice int
	fmt.Sscanf(input, "%d", &choice)
	if choice == 0 {
		return nil
	}
	if choice < 0 || choice > len(accounts) {
		ui.PrintError("Invalid choice")
		return fmt.Errorf("invalid choice %q", input)
	}

	username := accounts[choice-1].Username
	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		return err
	}
	ui.PrintSuccess("Account removed: " + username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'xscraper auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   auth_token: %s\n", sanitized.AuthToken)
		fmt.Printf("   ct0: %s\n", sanitized.CSRFToken)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
	return nil
}
