/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/spf13/cobra"

	"github.com/acronis/go-exotoken"
	"github.com/acronis/go-exotoken/idptoken"
)

type tokenFlags struct {
	tenantID     string
	clientID     string
	secret       string
	certFile     string
	keyFile      string
	certPassword string
	scope        string
	authority    string
	timeout      time.Duration
}

func newTokenCommand(rootFlags *rootFlags) *cobra.Command {
	var flags tokenFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Acquire an access token and print the JSON response.",
		Long: `
Usage: exotoken token --tenant <tenant> --app-id <client-id> (--secret <secret> | --cert-file <file>) [options]

  Requests an app-only access token with the OAuth2 client-credentials grant.
  The application authenticates with a client secret or with a certificate,
  in the latter case a client assertion signed with the certificate key is sent.

  Token for Microsoft Graph:

      $ exotoken token --tenant contoso.onmicrosoft.com --app-id <client-id> --secret <secret>

  Token for EWS with a PFX certificate:

      $ exotoken token --tenant contoso.onmicrosoft.com --app-id <client-id> \
          --cert-file app.pfx --cert-password <password> --scope EWS

  Flags take precedence over the configuration file and environment variables.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, rootFlags, &flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.tenantID, "tenant", "", "Tenant ID (GUID) or domain (e.g. contoso.onmicrosoft.com)")
	f.StringVar(&flags.clientID, "app-id", "", "Application (client) ID")
	f.StringVar(&flags.secret, "secret", "", "Client secret")
	f.StringVar(&flags.certFile, "cert-file", "", "Certificate file, PKCS#12 (.pfx, .p12) or PEM")
	f.StringVar(&flags.keyFile, "key-file", "", "PEM private key file, if the PEM certificate file has no key")
	f.StringVar(&flags.certPassword, "cert-password", "", "PKCS#12 password")
	f.StringVar(&flags.scope, "scope", "", "Scope selector (Default, EWS, IMAP, POP, SMTP)")
	f.StringVar(&flags.authority, "authority", "", "Identity platform authority URL (default "+idptoken.DefaultAuthorityURL+")")
	f.DurationVar(&flags.timeout, "timeout", 0, "Token request timeout")
	return cmd
}

func runToken(cmd *cobra.Command, rootFlags *rootFlags, flags *tokenFlags) error {
	cfg, err := loadAppConfig(rootFlags.configFile)
	if err != nil {
		return err
	}
	if err = applyTokenFlags(cmd, flags, cfg); err != nil {
		return err
	}
	req, err := cfg.IDP.TokenRequest()
	if err != nil {
		return err
	}

	logger, closeLogger, err := newLogger(cfg.Log, rootFlags.logLevel)
	if err != nil {
		return err
	}
	defer closeLogger()

	acquirer := exotoken.NewTokenAcquirer(cfg.ExoToken, exotoken.WithTokenAcquirerLogger(logger))

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	resp, err := acquirer.AcquireToken(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(resp.Raw))
	return err
}

// applyTokenFlags overrides configuration values with the flags set on the command line.
// A credential given by flags replaces the credential from the configuration.
func applyTokenFlags(cmd *cobra.Command, flags *tokenFlags, cfg *AppConfig) error {
	f := cmd.Flags()
	if f.Changed("secret") && f.Changed("cert-file") {
		return &idptoken.InvalidInputError{
			Field:  "credential",
			Reason: "is ambiguous, client secret and certificate are mutually exclusive",
		}
	}
	if f.Changed("tenant") {
		cfg.IDP.TenantID = flags.tenantID
	}
	if f.Changed("app-id") {
		cfg.IDP.ClientID = flags.clientID
	}
	if f.Changed("secret") {
		cfg.IDP.ClientSecret = flags.secret
		cfg.IDP.Certificate = idptoken.CertificateConfig{}
	}
	if f.Changed("cert-file") {
		cfg.IDP.ClientSecret = ""
		cfg.IDP.Certificate = idptoken.CertificateConfig{File: flags.certFile}
	}
	if f.Changed("key-file") {
		cfg.IDP.Certificate.KeyFile = flags.keyFile
	}
	if f.Changed("cert-password") {
		cfg.IDP.Certificate.Password = flags.certPassword
	}
	if f.Changed("scope") {
		scope := idptoken.Scope(flags.scope)
		if _, known := scope.Audience(); !known {
			return &idptoken.InvalidInputError{Field: "scope", Reason: fmt.Sprintf("%q is unknown", flags.scope)}
		}
		cfg.IDP.Scope = scope
	}
	if f.Changed("authority") {
		cfg.ExoToken.AuthorityURL = flags.authority
	}
	if f.Changed("timeout") {
		cfg.ExoToken.HTTPClient.RequestTimeout = config.TimeDuration(flags.timeout)
	}
	return nil
}
