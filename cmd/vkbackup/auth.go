package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vkbackup/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored tokens",
	Long: `Manage the access tokens of VK, Yandex.Disk and Google Drive.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your tokens or config files!`,
}

// setCmd represents the auth set command
var setCmd = &cobra.Command{
	Use:       "set <service>",
	Short:     "Store a token",
	Long:      "Store the token of a service (" + strings.Join(auth.KnownServices, ", ") + "). The token is read without echo.",
	Example:   "  vkbackup auth set vk\n  vkbackup auth set yandex",
	Args:      cobra.ExactArgs(1),
	ValidArgs: auth.KnownServices,
	RunE:      runAuthSet,
}

// deleteCmd represents the auth delete command
var deleteCmd = &cobra.Command{
	Use:       "delete <service>",
	Short:     "Remove a stored token",
	Args:      cobra.ExactArgs(1),
	ValidArgs: auth.KnownServices,
	RunE:      runAuthDelete,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Long:  `List the services with a stored token. Tokens are masked.`,
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setCmd)
	authCmd.AddCommand(deleteCmd)
	authCmd.AddCommand(listCmd)
}

func checkService(service string) (string, error) {
	service = strings.ToLower(strings.TrimSpace(service))
	if !auth.IsKnownService(service) {
		return "", fmt.Errorf("unknown service %q (expected one of: %s)", service, strings.Join(auth.KnownServices, ", "))
	}
	return service, nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	out := printer()

	service, err := checkService(args[0])
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	p := newTerminalPrompter()
	if manager.Token(service) != "" && !p.Confirm(fmt.Sprintf("A %s token is already stored. Replace it?", service)) {
		return nil
	}

	token, err := p.Secret(service + " token")
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	if err := manager.Store(&auth.Credential{Service: service, Token: token}); err != nil {
		return err
	}
	out.Success("Token for %s stored", service)
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	out := printer()

	service, err := checkService(args[0])
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(service); err != nil {
		return err
	}
	out.Success("Token for %s removed", service)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	out := printer()

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		out.Warning("No tokens stored. Use 'vkbackup auth set <service>' to add one.")
		return nil
	}

	out.Title("Stored tokens")
	for _, cred := range creds {
		masked := auth.Sanitize(cred)
		modified := "environment"
		if !masked.LastModified.IsZero() {
			modified = masked.LastModified.Format("2006-01-02 15:04")
		}
		out.Info(masked.Service, fmt.Sprintf("%s (%s)", masked.Token, modified))
	}
	return nil
}
