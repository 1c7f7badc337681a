package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"crossposter/pkg/auth"
	"crossposter/pkg/config"
	"crossposter/pkg/logger"
	"crossposter/pkg/publisher"
	"crossposter/pkg/ui"
)

var (
	loginHost   string
	loginVerify bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Bluesky credentials",
	Long: `Manage stored Bluesky app-password credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables BLUESKY_HANDLE / BLUESKY_PASSWORD (read-only)`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [handle]",
	Short: "Store a Bluesky app password",
	Example: `  # Interactive login
  crossposter auth login

  # Login for a handle on a self-hosted PDS
  crossposter auth login someone.example.com --host https://pds.example.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <handle>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored accounts",
	Long:  `List stored Bluesky accounts with the app password masked.`,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVar(&loginHost, "host", "", "PDS host (default https://bsky.social)")
	loginCmd.Flags().BoolVar(&loginVerify, "verify", true, "create a session to check the credentials before saving")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var handle string
	if len(args) > 0 {
		handle = args[0]
	} else {
		auth.ShowAppPasswordGuide(os.Stdout)
		fmt.Print("Bluesky handle: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read handle", err.Error())
			os.Exit(1)
		}
		handle = strings.TrimSpace(input)
	}

	handle = auth.NormalizeHandle(handle)
	if handle == "" {
		ui.PrintError("Handle is required")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(handle); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", handle)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("App password (hidden): ")
	password, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read app password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("App password is required")
		os.Exit(1)
	}

	account := &auth.Account{
		Handle:      handle,
		AppPassword: password,
		Host:        loginHost,
	}

	if loginVerify {
		if err := verifyCredentials(cmd.Context(), account); err != nil {
			ui.PrintError("Login failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Credentials verified")
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %s stored", handle))
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	handle := auth.NormalizeHandle(args[0])
	if err := manager.Delete(handle); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %s removed", handle))
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Run 'crossposter auth login' to add one.")
		return
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		host := sanitized.Host
		if host == "" {
			host = publisher.DefaultHost
		}
		ui.PrintInfo(sanitized.Handle, fmt.Sprintf("%s  %s  (updated %s)",
			host, sanitized.AppPassword, sanitized.LastModified.Format(time.RFC822)))
	}
}

// verifyCredentials creates a throwaway session with the account
func verifyCredentials(ctx context.Context, account *auth.Account) error {
	bsky := publisher.NewBluesky(config.BlueskyConfig{
		Host:   account.Host,
		Handle: account.Handle,
	}, 30*time.Second, nil, logger.NewNopLogger())

	return bsky.Login(ctx, account.AppPassword)
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
