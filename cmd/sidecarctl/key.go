package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Prepare and validate the sidecar private key",
}

var keyFile string

// readKeyInput は --file またはAPLOS_PRIVATE_KEYから鍵文字列を取得する。
func readKeyInput() (string, error) {
	if keyFile != "" {
		b, err := os.ReadFile(keyFile)
		if err != nil {
			return "", fmt.Errorf("reading key file: %w", err)
		}
		return string(b), nil
	}
	if v := os.Getenv("APLOS_PRIVATE_KEY"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("--file or APLOS_PRIVATE_KEY is required")
}

var keyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the private key can be loaded (PEM or bare base64)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readKeyInput()
		if err != nil {
			return err
		}
		ctx := context.Background()

		var unwrapper infra.KeyUnwrapper
		if name := os.Getenv("APLOS_PRIVATE_KEY_KMS_KEY_NAME"); name != "" && keyFile == "" {
			kmsClient, err := infra.NewKMSClient(ctx, name)
			if err != nil {
				return err
			}
			defer kmsClient.Close()
			unwrapper = kmsClient
		}

		key, err := infra.LoadPrivateKey(ctx, raw, unwrapper)
		if err != nil {
			return err
		}
		if key == nil {
			return fmt.Errorf("private key is empty")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: RSA %d-bit private key\n", key.N.BitLen())
		return nil
	},
}

var kmsKeyName string

var keyWrapCmd = &cobra.Command{
	Use:   "wrap",
	Short: "Encrypt the private key with Cloud KMS for APLOS_PRIVATE_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		if kmsKeyName == "" {
			return fmt.Errorf("--kms-key-name is required")
		}
		raw, err := readKeyInput()
		if err != nil {
			return err
		}
		ctx := context.Background()

		// 不正な鍵を暗号化しないよう事前に検証する
		pemText := infra.NormalizePEM(raw)
		if _, err := infra.ParsePrivateKey(pemText); err != nil {
			return err
		}

		kmsClient, err := infra.NewKMSClient(ctx, kmsKeyName)
		if err != nil {
			return err
		}
		defer kmsClient.Close()

		ciphertext, err := kmsClient.Encrypt(ctx, []byte(pemText))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(ciphertext))
		return nil
	},
}

func init() {
	keyCmd.PersistentFlags().StringVar(&keyFile, "file", "", "Path to the private key (PEM or bare base64)")
	keyWrapCmd.Flags().StringVar(&kmsKeyName, "kms-key-name", os.Getenv("APLOS_PRIVATE_KEY_KMS_KEY_NAME"), "Cloud KMS key resource name")
	keyCmd.AddCommand(keyCheckCmd)
	keyCmd.AddCommand(keyWrapCmd)
}
