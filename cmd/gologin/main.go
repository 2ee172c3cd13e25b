package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/MrEthical07/goLogin/enroll/qr"
	"github.com/MrEthical07/goLogin/internal/secrets"
	rodprobe "github.com/MrEthical07/goLogin/probe/rod"
)

func main() {
	var (
		configPath = envOr("GOLOGIN_CONFIG", "config.json")
		envPath    = envOr("GOLOGIN_ENV", ".env")
		redisAddr  = envOr("GOLOGIN_REDIS", "")
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "gologin",
		Short: "TOTP provisioning and MFA login automation",
	}

	root.PersistentFlags().StringVar(&configPath, "config", configPath, "JSON config file holding mfa.totp_secret (env GOLOGIN_CONFIG)")
	root.PersistentFlags().StringVar(&envPath, "env", envPath, ".env file with a TOTP_SECRET override (env GOLOGIN_ENV)")
	root.PersistentFlags().StringVar(&redisAddr, "redis", redisAddr, "optional redis address for headless runners (env GOLOGIN_REDIS)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	newEngine := func() (*goLogin.Engine, error) {
		logger := zap.NewNop()
		if verbose {
			var err error
			if logger, err = zap.NewDevelopment(); err != nil {
				return nil, err
			}
		}

		store, tokens := buildStores(configPath, envPath, redisAddr)
		return goLogin.New().
			WithSecretStore(store).
			WithTokenStore(tokens).
			WithArtifactDecoder(qr.New()).
			WithLogger(logger).
			Build()
	}

	var provisionImage, provisionPayload string
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Extract the TOTP secret from an enrollment QR image or payload and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := cmd.Context()
			var secret goLogin.Secret
			switch {
			case provisionImage != "":
				f, err := os.Open(provisionImage)
				if err != nil {
					return err
				}
				defer f.Close()
				secret, err = engine.ProvisionFromArtifact(ctx, f)
				if err != nil {
					return err
				}
			case provisionPayload != "":
				secret, err = engine.ProvisionSecret(ctx, provisionPayload)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("either --image or --payload is required")
			}

			fmt.Printf("provisioned secret %s\n", secret.Masked())
			return nil
		},
	}
	provisionCmd.Flags().StringVar(&provisionImage, "image", "", "enrollment QR image (png or jpeg)")
	provisionCmd.Flags().StringVar(&provisionPayload, "payload", "", "raw enrollment payload (otpauth:// URI)")

	codeCmd := &cobra.Command{
		Use:   "code",
		Short: "Print the current one-time code for the provisioned secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			code, err := engine.CurrentCode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}

	var loginURL, loginEmail, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Run the full MFA login sequence in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginURL == "" {
				return fmt.Errorf("--url is required")
			}
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email and --password are required")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			browser := rod.New()
			if err := browser.Connect(); err != nil {
				return fmt.Errorf("connect browser: %w", err)
			}
			defer func() { _ = browser.Close() }()

			page, err := browser.Page(proto.TargetCreateTarget{URL: loginURL})
			if err != nil {
				return fmt.Errorf("open login page: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			result, err := engine.AttemptLogin(ctx, rodprobe.New(page), goLogin.Credentials{
				Email:    loginEmail,
				Password: loginPassword,
			})
			if err != nil {
				return err
			}

			if result.AlreadyAuthenticated {
				fmt.Println("already authenticated")
				return nil
			}
			fmt.Printf("login %s after %d attempt(s) (signal %s)\n",
				result.Outcome.State, result.Attempts, result.Outcome.Signal)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginURL, "url", "", "login page URL")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")

	root.AddCommand(provisionCmd)
	root.AddCommand(codeCmd)
	root.AddCommand(loginCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// buildStores assembles the read-precedence chain (env wins over the JSON
// config) and picks the token store. A redis address swaps both for the
// redis backend used by headless runners.
func buildStores(configPath, envPath, redisAddr string) (secrets.Store, secrets.TokenStore) {
	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		store := secrets.NewRedisStore(client, "gologin")
		return store, store
	}

	file := secrets.NewFileStore(configPath)
	return secrets.NewChain(secrets.NewDotenvStore(envPath), file), file
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
