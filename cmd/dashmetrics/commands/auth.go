package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dashmetrics/internal/api"

	"github.com/spf13/cobra"
)

// readSecret takes the flag value, then the environment, then one line of stdin.
func readSecret(cmd *cobra.Command, flag, env, prompt string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd(get func() *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pass, err := readSecret(cmd, password, "DASHMETRICS_PASSWORD", "Senha: ")
			if err != nil {
				return err
			}
			if pass == "" {
				return errors.New("password is required")
			}
			user, err := a.auth.Login(cmd.Context(), a.client, args[0], pass)
			if err != nil {
				// A 401 here means wrong credentials, not an expired session.
				var he *api.HTTPError
				if errors.As(err, &he) && he.Kind == api.KindAuthExpired && he.Message != "" {
					return errors.New(he.Message)
				}
				return errors.New(api.UserMessage(err))
			}
			name := user.Name
			if name == "" {
				name = user.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bem-vindo, %s!\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (defaults to $DASHMETRICS_PASSWORD or stdin)")
	return cmd
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var (
		password string
		username string
		fullName string
	)
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account on the analytics API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pass, err := readSecret(cmd, password, "DASHMETRICS_PASSWORD", "Senha: ")
			if err != nil {
				return err
			}
			if len(pass) < 6 {
				return errors.New("password must have at least 6 characters")
			}
			if username == "" {
				username, _, _ = strings.Cut(args[0], "@")
			}
			resp, err := a.client.Register(cmd.Context(), api.RegisterRequest{
				Email:    args[0],
				Password: pass,
				Username: username,
				FullName: fullName,
			})
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			msg := resp.Message
			if msg == "" {
				msg = "Conta criada com sucesso."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg+" Faça login com `dashmetrics login "+args[0]+"`.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (defaults to $DASHMETRICS_PASSWORD or stdin)")
	cmd.Flags().StringVar(&username, "username", "", "username (defaults to the part of the email before @)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials and cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
			return nil
		},
	}
}
