// adminctl es el CLI de operaciones administrativas contra un admind corriendo.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("ADMINCTL_URL", "http://localhost:8080")
		token   = envOr("ADMINCTL_TOKEN", "")
		out     = envOr("ADMINCTL_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "adminctl",
		Short: "CLI admin para admind (/v1/admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("falta token (flag --token o env ADMINCTL_TOKEN)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de admind (env ADMINCTL_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token (env ADMINCTL_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, Token: token, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Estado admin del caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, b, err := cl.do(http.MethodGet, "/v1/admin/status", nil)
			if err != nil {
				return err
			}
			cl.print(st, b)
			return nil
		},
	}

	grantCmd := &cobra.Command{
		Use:   "grant <email>",
		Short: "Otorga el claim admin a un email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"email": args[0]})
			st, b, err := cl.do(http.MethodPost, "/v1/admin/claims/grant", body)
			if err != nil {
				return err
			}
			cl.print(st, b)
			return nil
		},
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke <email>",
		Short: "Revoca el claim admin de un email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"email": args[0]})
			st, b, err := cl.do(http.MethodPost, "/v1/admin/claims/revoke", body)
			if err != nil {
				return err
			}
			cl.print(st, b)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Snapshot de métricas del dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, b, err := cl.do(http.MethodGet, "/v1/admin/stats", nil)
			if err != nil {
				return err
			}
			cl.print(st, b)
			return nil
		},
	}

	var logsLimit int
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Entradas recientes del log administrativo",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, b, err := cl.do(http.MethodGet, fmt.Sprintf("/v1/admin/logs?limit=%d", logsLimit), nil)
			if err != nil {
				return err
			}
			cl.print(st, b)
			return nil
		},
	}
	logsCmd.Flags().IntVar(&logsLimit, "limit", 50, "cantidad de entradas")

	root.AddCommand(statusCmd, grantCmd, revokeCmd, statsCmd, logsCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
