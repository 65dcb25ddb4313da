package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/internal/logging"
	"github.com/thomasdesr/mwspay/ipn"
	"golang.org/x/sync/errgroup"
)

const verifyConcurrency = 4

func (a *app) newNotificationVerifier() (*mwspay.NotificationVerifier, error) {
	return mwspay.NewNotificationVerifier(a.cfg.Server.Topics,
		mwspay.WithLogger[mwspay.NotificationVerifier](logging.Smithy(a.logger)),
		mwspay.WithApplication[mwspay.NotificationVerifier](a.cfg.ApplicationName, a.cfg.ApplicationVersion),
	)
}

type verifyResult struct {
	file string
	n    *ipn.VerifiedNotification
	err  error
}

func (a *app) verifyIPNCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-ipn FILE...",
		Short: "Authenticate saved IPN bodies",
		Long: `Authenticate saved IPN request bodies, fetching each signing certificate
from AWS. Topics are restricted to MWSPAY_SERVER_TOPICS when it is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.newNotificationVerifier()
			if err != nil {
				return err
			}

			header := http.Header{}
			header.Set(ipn.HeaderMessageType, ipn.MessageTypeNotification)

			results := make([]verifyResult, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(verifyConcurrency)
			for i, file := range args {
				i, file := i, file
				g.Go(func() error {
					results[i].file = file

					body, err := os.ReadFile(file)
					if err != nil {
						results[i].err = err
						return nil
					}

					results[i].n, results[i].err = v.Verify(ctx, header, body)
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: rejected: %v\n", r.file, r.err)
					continue
				}

				kind := "unknown"
				if inner, err := r.n.Inner(); err == nil {
					kind = inner.NotificationType
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok %s %s\n", r.file, r.n.MessageID, kind)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d notifications rejected", failed, len(results))
			}
			return nil
		},
	}

	return cmd
}
