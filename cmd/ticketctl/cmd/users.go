package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/repository"
)

var (
	adminTag    = color.New(color.FgYellow, color.Bold).SprintFunc()
	inactiveTag = color.New(color.FgRed).SprintFunc()
	okFmt       = color.New(color.FgGreen).SprintFunc()
	dimFmt      = color.New(color.Faint).SprintFunc()
)

// userAdmin holds the account operations behind the users subcommands.
type userAdmin struct {
	users repository.UserRepository
	cost  int
	out   io.Writer
}

func newUserAdmin(users repository.UserRepository, cost int, out io.Writer) *userAdmin {
	return &userAdmin{users: users, cost: cost, out: out}
}

// list prints users of the given kind: admin, normal or all.
func (a *userAdmin) list(ctx context.Context, kind string) error {
	var filter repository.UserFilter
	switch kind {
	case "all":
	case "admin", "normal":
		isAdmin := kind == "admin"
		filter.IsAdmin = &isAdmin
	default:
		return fmt.Errorf("unknown user type %q (want admin, normal or all)", kind)
	}

	users, err := a.users.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintf(a.out, "No %s users found.\n", kind)
		return nil
	}
	for i := range users {
		fmt.Fprintln(a.out, describeUser(&users[i]))
	}
	return nil
}

func describeUser(u *domain.User) string {
	line := fmt.Sprintf("%4d  %-20s %-30s %s", u.ID, u.Username, u.Email, dimFmt(u.FullName()))
	if u.IsAdmin {
		line += " " + adminTag("[ADMIN]")
	}
	if !u.IsActive {
		line += " " + inactiveTag("[INACTIVE]")
	}
	return line
}

// resetPassword replaces the user's password. Inactive accounts stay inactive unless
// reactivate is set.
func (a *userAdmin) resetPassword(ctx context.Context, username, password, confirm string, reactivate bool) error {
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if err := auth.CheckPasswordStrength(password); err != nil {
		return err
	}
	user, err := a.lookup(ctx, username)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, a.cost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if reactivate {
		user.IsActive = true
	} else if !user.IsActive {
		fmt.Fprintln(a.out, inactiveTag("warning: account is inactive; pass --reactivate to enable it"))
	}
	if err := a.users.Update(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s password reset for %s\n", okFmt("✓"), user.Username)
	return nil
}

// setAdmin grants or revokes admin rights. Tickets already assigned to a demoted admin
// keep their assignee.
func (a *userAdmin) setAdmin(ctx context.Context, username string, isAdmin bool) error {
	user, err := a.lookup(ctx, username)
	if err != nil {
		return err
	}
	if user.IsAdmin == isAdmin {
		fmt.Fprintf(a.out, "%s is already %s\n", user.Username, roleName(isAdmin))
		return nil
	}
	user.IsAdmin = isAdmin
	if err := a.users.Update(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s is now %s\n", okFmt("✓"), user.Username, roleName(isAdmin))
	return nil
}

func (a *userAdmin) lookup(ctx context.Context, username string) (*domain.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return user, err
}

func roleName(isAdmin bool) string {
	if isAdmin {
		return "an admin"
	}
	return "a regular user"
}

// passwordReader prompts without echo on a terminal and reads plain lines otherwise.
// One reader serves every prompt of a command so buffered piped input is not lost.
type passwordReader struct {
	in    *os.File
	lines *bufio.Reader
}

func newPasswordReader(in *os.File) *passwordReader {
	return &passwordReader{in: in, lines: bufio.NewReader(in)}
}

func (r *passwordReader) read(prompt string) (string, error) {
	fd := int(r.in.Fd())
	if !term.IsTerminal(fd) {
		line, err := r.lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

var (
	userType   string
	reactivate bool
	makeAdmin  bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return admin.list(cmd.Context(), userType)
	},
}

var usersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := newPasswordReader(os.Stdin)
		password, err := prompt.read("New password: ")
		if err != nil {
			return err
		}
		confirm, err := prompt.read("Confirm password: ")
		if err != nil {
			return err
		}
		return admin.resetPassword(cmd.Context(), args[0], password, confirm, reactivate)
	},
}

var usersSetAdminCmd = &cobra.Command{
	Use:   "set-admin <username>",
	Short: "Grant or revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return admin.setAdmin(cmd.Context(), args[0], makeAdmin)
	},
}

func init() {
	usersListCmd.Flags().StringVar(&userType, "type", "all", "which users to list: admin, normal or all")
	usersResetPasswordCmd.Flags().BoolVar(&reactivate, "reactivate", false, "also mark an inactive account active")
	usersSetAdminCmd.Flags().BoolVar(&makeAdmin, "admin", true, "true to grant admin rights, false to revoke")

	usersCmd.AddCommand(usersListCmd, usersResetPasswordCmd, usersSetAdminCmd)
}
