// Package portalctl implements the operator command line for the portal:
// migrations, admin accounts, manual payment sync, signed links and
// deliverable uploads.
package portalctl

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/netx"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/spf13/cobra"
)

type cli struct {
	open       Opener
	httpClient *http.Client
	configPath string
	cfg        *config.Config
}

// NewRootCmd builds the portalctl command tree. open is called once per
// command that needs the database.
func NewRootCmd(open Opener) *cobra.Command {
	c := &cli{open: open, httpClient: &http.Client{Timeout: 30 * time.Minute}}

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operate the studio client portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.cfg = config.LoadWithoutFlags(c.configPath)
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to config file (JSON or YAML)")

	root.AddCommand(
		c.migrateCmd(),
		c.adminCmd(),
		c.invoiceCmd(),
		c.linkCmd(),
		c.tokensCmd(),
		c.uploadCmd(),
	)
	return root
}

// withBackend opens a backend, runs fn and closes the backend.
func (c *cli) withBackend(ctx context.Context, fn func(Backend) error) error {
	b, err := c.open(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd.Context(), func(b Backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage internal admin accounts",
	}

	var email, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an INTERNAL_ADMIN user; the password is read from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := getNewPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			return c.withBackend(cmd.Context(), func(b Backend) error {
				u, err := b.CreateAdmin(cmd.Context(), email, name, string(pw))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "admin email")
	create.Flags().StringVar(&name, "name", "", "display name")
	_ = create.MarkFlagRequired("email")

	admin.AddCommand(create)
	return admin
}

func (c *cli) invoiceCmd() *cobra.Command {
	invoice := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoices",
	}
	invoice.AddCommand(&cobra.Command{
		Use:   "paid <invoice-id>",
		Short: "Mark an invoice paid and resync its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd.Context(), func(b Backend) error {
				inv, err := b.MarkInvoicePaid(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invoice %s is %s\n", inv.Number, inv.Status)
				return nil
			})
		},
	})
	return invoice
}

func (c *cli) linkCmd() *cobra.Command {
	link := &cobra.Command{
		Use:   "link",
		Short: "Signed download links",
	}

	var ttl time.Duration
	sign := &cobra.Command{
		Use:   "sign <file-id>",
		Short: "Print a signed download URL for a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = c.cfg.DownloadLinkTTL
			}
			return c.withBackend(cmd.Context(), func(b Backend) error {
				url, expires, err := b.SignFileLink(cmd.Context(), args[0], ttl)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
	sign.Flags().DurationVar(&ttl, "ttl", 0, "link lifetime (defaults to the configured download link TTL)")

	link.AddCommand(sign)
	return link
}

func (c *cli) tokensCmd() *cobra.Command {
	tokens := &cobra.Command{
		Use:   "tokens",
		Short: "Session token maintenance",
	}
	tokens.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBackend(cmd.Context(), func(b Backend) error {
				n, err := b.PruneRefreshTokens(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d refresh tokens\n", n)
				return nil
			})
		},
	})
	return tokens
}

func (c *cli) uploadCmd() *cobra.Command {
	var preview, final string
	cmd := &cobra.Command{
		Use:   "upload <deliverable-id>",
		Short: "Upload preview and/or final files for a deliverable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if preview == "" && final == "" {
				return fmt.Errorf("at least one of --preview or --final is required")
			}
			for _, f := range []string{preview, final} {
				if f != "" && filepath.Ext(f) == "" {
					return fmt.Errorf("%s: file needs an extension", f)
				}
			}
			return c.withBackend(cmd.Context(), func(b Backend) error {
				up, err := b.ReplaceDeliverableFiles(cmd.Context(), args[0], filepath.Ext(preview), filepath.Ext(final))
				if err != nil {
					return err
				}
				if up.Preview != nil {
					if err := c.putFile(cmd.Context(), up.Preview.URL, preview); err != nil {
						return fmt.Errorf("preview: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "uploaded preview %s\n", up.Preview.Key)
				}
				if up.Final != nil {
					if err := c.putFile(cmd.Context(), up.Final.URL, final); err != nil {
						return fmt.Errorf("final: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "uploaded final %s\n", up.Final.Key)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&preview, "preview", "", "watermarked preview file")
	cmd.Flags().StringVar(&final, "final", "", "clean final file")
	return cmd
}

func (c *cli) putFile(ctx context.Context, url, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return netx.UploadToPresignedURL(ctx, c.httpClient, url, mime.TypeByExtension(filepath.Ext(path)), f, info.Size())
}
