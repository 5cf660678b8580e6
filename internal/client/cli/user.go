package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

func newWhoamiCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Whoami(cmd.Context())
		},
	}
}

func newProfilesCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.app.Profiles(cmd.Context())
		},
	}
	cmd.AddCommand(newCompleteProfileCmd(r))
	return cmd
}

type profileFlags struct {
	firstName   string
	lastName    string
	displayName string
	gender      string
	birthDate   string
	bio         string
}

func (f profileFlags) input() (models.ProfileInput, error) {
	in := models.ProfileInput{
		FirstName:   f.firstName,
		LastName:    f.lastName,
		DisplayName: f.displayName,
		Gender:      models.Gender(f.gender),
	}
	if in.DisplayName == "" {
		in.DisplayName = f.firstName + " " + f.lastName
	}
	if f.gender != "" && !in.Gender.Valid() {
		return in, fmt.Errorf("gender must be one of %s, %s or %s", models.GenderMale, models.GenderFemale, models.GenderOther)
	}
	if f.birthDate != "" {
		born, err := time.Parse(dateLayout, f.birthDate)
		if err != nil {
			return in, fmt.Errorf("birth date must look like %s: %w", dateLayout, err)
		}
		in.DateOfBirth = born
	}
	if f.bio != "" {
		bio := f.bio
		in.Bio = &bio
	}
	return in, nil
}

func newCompleteProfileCmd(r *root) *cobra.Command {
	var f profileFlags
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Create the first profile and activate the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return r.app.CompleteProfile(cmd.Context(), in)
		},
	}
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.displayName, "display-name", "", "display name (defaults to first and last name)")
	cmd.Flags().StringVar(&f.gender, "gender", "", "male, female or other")
	cmd.Flags().StringVar(&f.birthDate, "birth-date", "", "date of birth as "+dateLayout)
	cmd.Flags().StringVar(&f.bio, "bio", "", "short bio")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

// Whoami fetches the current user from the server and shows it.
func (a *App) Whoami(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	u, err := withSpinner(a, "Loading user...", func() (*models.User, error) {
		return a.userService.Refresh(ctx)
	})
	if err != nil {
		return err
	}
	renderUser(a.out, u)
	return nil
}

func (a *App) Profiles(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	profiles, err := withSpinner(a, "Loading profiles...", func() ([]models.Profile, error) {
		return a.userService.Profiles(ctx)
	})
	if err != nil {
		return err
	}
	renderProfiles(a.out, profiles)
	return nil
}

func (a *App) CompleteProfile(ctx context.Context, in models.ProfileInput) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	u, err := withSpinner(a, "Saving profile...", func() (*models.User, error) {
		return a.userService.CompleteProfile(ctx, in)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Profile saved. Welcome, %s!\n", u.Name())
	return nil
}
