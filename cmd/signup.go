// ABOUTME: Signup command for the pettrip CLI
// ABOUTME: Checks username and nickname availability before creating the account

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

var (
	signupUsername      string
	signupNickname      string
	signupEmail         string
	signupPasswordStdin bool
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a Pet Travel account",
	Long: `Create an account. The username and nickname are checked for
availability before anything is submitted.

Missing values are prompted for when attached to a terminal.

Exit codes:
  0 - Account created
  1 - Rejected (taken name, invalid input, passwords differ)
  2 - Error (connectivity)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSignup(ctx, os.Stdin, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	signupCmd.Flags().StringVar(&signupUsername, "username", "", "Username (letters and digits, at least 4)")
	signupCmd.Flags().StringVar(&signupNickname, "nickname", "", "Display name (at least 2 characters)")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address")
	signupCmd.Flags().BoolVar(&signupPasswordStdin, "password-stdin", false, "Read the password from stdin")
}

// signupInput is what the account needs
type signupInput struct {
	username string
	nickname string
	email    string
	password string
	confirm  string
}

// runSignup registers the account and returns exit code
func runSignup(ctx context.Context, in io.Reader, w io.Writer) int {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	input, err := signupValues(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	reg := account.NewRegistration(rt.auth)
	if err := register(ctx, reg, input); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return signupExitCode(err)
	}

	fmt.Fprintf(w, "Account %s created. Log in with: pettrip login --username %s\n", input.username, input.username)
	return 0
}

// register runs the checks in order and submits
func register(ctx context.Context, reg *account.Registration, in signupInput) error {
	reg.SetUsername(in.username)
	available, err := reg.CheckUsername(ctx)
	if err != nil {
		return err
	}
	if !available {
		return account.ErrUsernameTaken
	}

	reg.SetNickname(in.nickname)
	available, err = reg.CheckNickname(ctx)
	if err != nil {
		return err
	}
	if !available {
		return account.ErrNicknameTaken
	}

	return reg.Submit(ctx, in.email, in.password, in.confirm)
}

// signupExitCode maps rejections to 1 and everything else to 2
func signupExitCode(err error) int {
	rejections := []error{
		account.ErrInvalidUsername,
		account.ErrInvalidNickname,
		account.ErrUsernameTaken,
		account.ErrNicknameTaken,
		account.ErrInvalidEmail,
		account.ErrPasswordRequired,
		account.ErrPasswordMismatch,
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return 1
		}
	}
	return 2
}

// signupValues fills input from flags and stdin, prompting for the rest
func signupValues(ctx context.Context, in io.Reader) (signupInput, error) {
	input := signupInput{
		username: signupUsername,
		nickname: signupNickname,
		email:    signupEmail,
	}
	if signupPasswordStdin {
		secret, err := readSecret(in)
		if err != nil {
			return input, fmt.Errorf("read password: %w", err)
		}
		input.password = secret
		input.confirm = secret
	}

	complete := input.username != "" && input.nickname != "" && input.email != "" && input.password != ""
	if complete {
		return input, nil
	}
	if !isTerminal(in) {
		return input, errors.New("--username, --nickname, --email and --password-stdin are required when not attached to a terminal")
	}

	var fields []huh.Field
	if input.username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Description("Letters and digits, at least 4, with one of each").
			Value(&input.username).
			Validate(account.ValidateUsername))
	}
	if input.nickname == "" {
		fields = append(fields, huh.NewInput().
			Title("Nickname").
			Value(&input.nickname).
			Validate(account.ValidateNickname))
	}
	if input.email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&input.email).
			Validate(huh.ValidateNotEmpty()))
	}
	if input.password == "" {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&input.password).
				Validate(huh.ValidateNotEmpty()),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&input.confirm))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme())
	if err := form.RunWithContext(ctx); err != nil {
		return input, err
	}
	return input, nil
}
