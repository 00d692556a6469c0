// Package main はサイドカー運用CLIのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
)

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "sidecarctl",
		Short: "Aplos token-decryption sidecar CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("SIDECARCTL_API_URL")
			}
			if apiURL == "" {
				apiURL = "http://127.0.0.1:3001"
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Sidecar URL (or set SIDECARCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 40*time.Second, "Request timeout")

	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(authTokenCmd())
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sidecarctl version %s\n", infra.Version)
		},
	}
}

// healthCmd はヘルスチェックコマンド。
func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check sidecar health",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := doRequest(http.MethodGet, "/health", nil, http.StatusOK)
			if err != nil {
				return err
			}
			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			var result struct {
				Status  string `json:"status"`
				Service string `json:"service"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.Service, result.Status)
			return nil
		},
	}
}

// decryptCmd は暗号化トークンの復号コマンド。
func decryptCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a base64 RSA-encrypted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "-" {
				b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 16*1024))
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				token = string(bytes.TrimSpace(b))
			}
			if token == "" {
				return fmt.Errorf("--token is required")
			}

			payload, err := json.Marshal(map[string]string{"encrypted_token": token})
			if err != nil {
				return fmt.Errorf("encoding request: %w", err)
			}
			body, err := doRequest(http.MethodPost, "/decrypt", payload, http.StatusOK)
			if err != nil {
				return err
			}
			return printToken(cmd, body)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Encrypted token (base64), or - to read from stdin (required)")
	cmd.MarkFlagRequired("token")
	return cmd
}

// authTokenCmd はAplos認証トークンの取得コマンド。
func authTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth-token",
		Short: "Fetch and decrypt an Aplos auth token through the sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := doRequest(http.MethodPost, "/auth-token", nil, http.StatusOK)
			if err != nil {
				return err
			}
			return printToken(cmd, body)
		},
	}
}

func printToken(cmd *cobra.Command, body []byte) error {
	if output == "json" {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Token)
	return nil
}

func doRequest(method, path string, payload []byte, wantStatus int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("Error (%d): %s", statusCode, errResp.Error)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
