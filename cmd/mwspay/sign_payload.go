package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/mwssigner"
)

func (a *app) signPayloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-payload [FILE]",
		Short: "Sign a JSON payload with the configured private key",
		Long: `Sign a JSON payload (read from FILE, or stdin) with RSASSA-PSS using the
key given by --private-key. The payload is signed byte for byte, less
surrounding whitespace, and the base64 signature is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.PrivateKeyPath == "" {
				return fmt.Errorf("--private-key is required")
			}

			pemBytes, err := os.ReadFile(a.cfg.PrivateKeyPath)
			if err != nil {
				return errorutil.Wrap(err, "reading private key")
			}
			key, err := mwssigner.ParsePrivateKeyPEM(pemBytes)
			if err != nil {
				return err
			}
			signer, err := mwssigner.NewPayloadSigner(key)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return errorutil.Wrap(err, "opening payload")
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return errorutil.Wrap(err, "reading payload")
			}

			payload := bytes.TrimSpace(raw)
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not JSON")
			}

			sig, err := signer.SignPayload(json.RawMessage(payload))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
}
