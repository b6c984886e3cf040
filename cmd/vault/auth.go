package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Set the vault password",
		Long:  "Sets the password for a vault that has none yet, then unlocks it.",
		Args:  cobra.NoArgs,
		RunE:  runRegister,
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		state, err := d.AuthHandler.HandleStart(ctx)
		if err != nil {
			return err
		}
		if state != entities.StateUnregistered {
			return services.ErrAlreadyRegistered
		}

		for {
			password, err := d.Prompter.line("New password: ")
			if err != nil {
				return fmt.Errorf("registration aborted: %w", err)
			}
			confirmation, err := d.Prompter.line("Confirm password: ")
			if err != nil {
				return fmt.Errorf("registration aborted: %w", err)
			}

			err = d.AuthHandler.HandleRegister(ctx, password, confirmation)
			var verr *services.ValidationError
			switch {
			case err == nil:
				fmt.Println("Password set. Vault unlocked.")
				return nil
			case errors.As(err, &verr):
				fmt.Printf("%v\n", verr)
			default:
				return err
			}
		}
	})
}

type loginFlags struct {
	biometric bool
}

func newLoginCmd() *cobra.Command {
	var flags loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check that the vault can be unlocked",
		Long:  "Runs the authentication gate: biometric login when available, otherwise the password prompt.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.biometric, "biometric", "b", false, "Only try biometric login")

	return cmd
}

func runLogin(cmd *cobra.Command, flags loginFlags) error {
	ctx := cmd.Context()

	if !flags.biometric {
		return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
			fmt.Println("Vault unlocked.")
			return nil
		})
	}

	return withDeps(ctx, func(d *Deps) error {
		if _, err := d.AuthHandler.HandleStart(ctx); err != nil {
			return err
		}
		if err := d.AuthHandler.HandleBiometricEligible(ctx); err != nil {
			return errors.New(describeBiometric(err))
		}
		if err := d.AuthHandler.HandleBiometric(ctx); err != nil {
			return errors.New(describeBiometric(err))
		}
		if !d.AuthHandler.Session().IsLoggedIn() {
			fmt.Println("Biometric login cancelled.")
			return nil
		}
		fmt.Println("Vault unlocked.")
		return nil
	})
}

type resetFlags struct {
	force bool
}

func newResetPasswordCmd() *cobra.Command {
	var flags resetFlags

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Forget the password and wipe the vault",
		Long:  "Removes the stored password and every record. Record types are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runResetPassword(cmd *cobra.Command, flags resetFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		if !flags.force && !d.Prompter.confirm(resetPrompt) {
			fmt.Println("Cancelled.")
			return nil
		}
		if _, err := d.AuthHandler.HandleStart(ctx); err != nil {
			return err
		}
		if err := d.AuthHandler.HandleResetPassword(ctx); err != nil {
			return fmt.Errorf("resetting password: %w", err)
		}
		fmt.Println("Vault reset. Run 'vault register' to set a new password.")
		return nil
	})
}
