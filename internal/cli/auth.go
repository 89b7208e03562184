package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/config"
	"github.com/astroconsult/consult-server-go/internal/consult"
	"github.com/astroconsult/consult-server-go/internal/geo"
)

func newLoginCmd(a *app) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login <mobile>",
		Short: "Log in with a one-time code",
		Long: `Send a one-time code to the mobile number and verify it.

Examples:
  consultctl login 9876543210
  consultctl login 9876543210 --otp 1234`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mobile := args[0]
			gate := consult.NewOTPGate(a.api, a.session)

			if code == "" {
				resp, err := gate.RequestOTP(ctx, mobile)
				if err != nil {
					return err
				}
				a.printf("%s\n", resp.Message)
				if resp.OTP != "" {
					a.printf("Development code: %s\n", resp.OTP)
				}

				var input consult.OTPInput
				for !input.Complete() {
					line, err := a.prompt("Code: ")
					if err != nil {
						return err
					}
					input.Reset()
					input.Paste(line)
					if !input.Complete() {
						a.printf("%s\n", client.UserMessage(client.ValidateOTP(input.Code())))
					}
				}
				code = input.Code()
			}

			route, err := gate.Verify(ctx, mobile, code)
			if err != nil {
				return err
			}

			if route == consult.RouteRegister {
				a.printf("Verified. Complete your birth profile with: consultctl register\n")
				return nil
			}
			a.printf("Welcome back. Start with: consultctl chat\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "otp", "", "verify this code instead of requesting one")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		profileFile string
		placeQuery  string
		nominatim   bool
		p           client.Profile
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a birth profile",
		Long: `Submit the birth profile of a newly verified user. Values come from a YAML file,
flags, or both (flags win). The place can be looked up by name.

Examples:
  consultctl register --profile me.yaml
  consultctl register --name Asha --gender Female --dob 1990-04-12 --tob 06:45 \
      --place Kozhikode --chart-style Kerala`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			profile, err := loadProfile(profileFile)
			if err != nil {
				return err
			}
			mergeProfile(&profile, p)
			profile.Mobile = a.session.Mobile()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			reg := consult.NewRegistration(a.api, a.session, config.RegistrationTimeout, cancel)
			reg.Start()
			defer reg.Stop()

			if placeQuery != "" {
				var resolver geo.Searcher = geo.NewStaticResolver()
				if nominatim {
					resolver = geo.NewNominatimResolver("", "consultctl/"+Version)
				}
				reg.Attach(resolver)

				places, err := resolver.Search(ctx, placeQuery)
				if err != nil {
					return fmt.Errorf("place search: %w", err)
				}
				if len(places) == 0 {
					return fmt.Errorf("no place found for %q", placeQuery)
				}
				resolver.Select(places[0])

				selected := reg.Profile()
				profile.PlaceOfBirth = selected.PlaceOfBirth
				profile.Latitude = selected.Latitude
				profile.Longitude = selected.Longitude
				profile.Country = selected.Country
				profile.State = selected.State
			}

			if err := reg.Submit(ctx, profile); err != nil {
				if reg.State() == consult.RegistrationAbandoned {
					return fmt.Errorf("registration timed out: log in again")
				}
				return err
			}

			a.printf("Registered %s. Your consultation is being prepared: consultctl status --wait\n", profile.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&profileFile, "profile", "", "YAML file with the birth profile")
	f.StringVar(&p.Name, "name", "", "full name")
	f.StringVar(&p.Email, "email", "", "email address (optional)")
	f.StringVar(&p.Gender, "gender", "", "Male or Female")
	f.StringVar(&p.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&p.TimeOfBirth, "tob", "", "time of birth, HH:MM")
	f.StringVar(&p.ChartStyle, "chart-style", "", "South Indian, North Indian, East Indian or Kerala")
	f.StringVar(&placeQuery, "place", "", "look up the place of birth by name")
	f.BoolVar(&nominatim, "nominatim", false, "look places up on OpenStreetMap instead of the built-in list")
	return cmd
}

func loadProfile(path string) (client.Profile, error) {
	var p client.Profile
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// mergeProfile copies the non-empty fields of src over dst.
func mergeProfile(dst *client.Profile, src client.Profile) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Name, src.Name)
	set(&dst.Email, src.Email)
	set(&dst.Gender, src.Gender)
	set(&dst.DateOfBirth, src.DateOfBirth)
	set(&dst.TimeOfBirth, src.TimeOfBirth)
	set(&dst.ChartStyle, src.ChartStyle)
}

func newStatusCmd(a *app) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the consultation is ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if !wait {
				resp, err := a.api.UserStatus(ctx, a.session.Mobile())
				if err != nil {
					return err
				}
				a.printf("Status: %s\n", resp.Status)
				if resp.WalletBalance != nil {
					a.printf("Balance: %.2f\n", *resp.WalletBalance)
				}
				return nil
			}

			wallet := consult.NewWallet()
			poller := consult.NewReadinessPoller(a.api, a.session, wallet, config.ReadinessPollInterval)
			poller.OnChange(func(s client.Status) { a.printf("Status: %s\n", s) })
			poller.Start(ctx)
			defer poller.Stop()

			select {
			case <-poller.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			if balance, ok := wallet.Balance(); ok {
				a.printf("Balance: %.2f\n", balance)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the consultation is ready")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.session.Authenticated() {
				if err := a.api.Logout(cmd.Context()); err != nil {
					a.printf("Server logout failed: %s\n", client.UserMessage(err))
				}
			}
			if err := a.session.End(); err != nil {
				return err
			}
			a.printf("Logged out.\n")
			return nil
		},
	}
}
