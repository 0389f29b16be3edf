package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().StringP("password", "p", "", "initial password (prompted when omitted)")
	userAddCmd.Flags().Bool("admin", false, "grant the admin role")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login users",
}

// 初回の admin はこれで作る（HTTP の users API は admin 限定のため）
var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create a login user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		admin, _ := cmd.Flags().GetBool("admin")
		if password == "" {
			var err error
			if password, err = promptPassword(cmd); err != nil {
				return err
			}
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			return err
		}
		defer conn.Close()

		svc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		res, err := svc.CreateUser(cmd.Context(), auth.UserForm{
			Username: args[0],
			Password: password,
			IsAdmin:  strconv.FormatBool(admin),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", res.Username, res.Role)
		return nil
	},
}

// promptPassword は端末からマスク入力で2回読む
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	read := func(prompt string) (string, error) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	pw, err := read("Password: ")
	if err != nil {
		return "", err
	}
	again, err := read("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
