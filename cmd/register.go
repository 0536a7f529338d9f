package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal"
)

var (
	registerPassword  string
	registerFirstName string
	registerLastName  string
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Long: `Create an account on the backend, then immediately log in with the
same credentials so the session is ready to use.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnv()
		if err != nil {
			return err
		}

		email := strings.TrimSpace(args[0])
		password := registerPassword
		if password == "" {
			password, err = promptPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
		}

		user, err := env.session.Register(cmd.Context(), internal.RegisterRequest{
			Email:     email,
			Password:  password,
			FirstName: registerFirstName,
			LastName:  registerLastName,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Registered and logged in as %s\n", user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted if omitted)")
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "Last name")
}
