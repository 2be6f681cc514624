// Package main provides a CLI for interacting with the rantircloud server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/loader"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/webhooks"
)

var (
	// Global flags
	serverURL  string
	username   string
	password   string
	token      string
	configPath string
)

// Config represents the CLI configuration
type Config struct {
	ServerURL string `json:"server_url"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "rantircloud-cli",
		Short: "RantirCloud CLI",
		Long:  "Command-line interface for managing flows on a rantircloud server",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if serverURL == "" || token == "" {
				loadCLIConfig()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Password")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a token",
		Run:   login,
	}

	flowCmd := &cobra.Command{
		Use:   "flow",
		Short: "Flow management",
	}

	flowListCmd := &cobra.Command{
		Use:   "list",
		Short: "List flows",
		Run:   listFlows,
	}

	flowGetCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get a flow",
		Args:  cobra.ExactArgs(1),
		Run:   getFlow,
	}

	flowDeleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a flow",
		Args:  cobra.ExactArgs(1),
		Run:   deleteFlow,
	}

	flowCmd.AddCommand(flowListCmd, flowGetCmd, flowDeleteCmd)

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a YAML flow document locally",
		Args:  cobra.ExactArgs(1),
		Run:   validateFlow,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Create and publish a flow from a YAML document",
		Args:  cobra.ExactArgs(1),
		Run:   importFlow,
	}

	signCmd := &cobra.Command{
		Use:   "sign [provider] [secret] [file]",
		Short: "Compute the webhook signature header for a request body",
		Args:  cobra.ExactArgs(3),
		Run:   signBody,
	}

	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Flow secret management",
	}

	secretListCmd := &cobra.Command{
		Use:   "list [flow-id]",
		Short: "List secret keys for a flow",
		Args:  cobra.ExactArgs(1),
		Run:   listSecrets,
	}

	secretSetCmd := &cobra.Command{
		Use:   "set [flow-id] [key] [value]",
		Short: "Set a secret value",
		Args:  cobra.ExactArgs(3),
		Run:   setSecret,
	}

	secretDeleteCmd := &cobra.Command{
		Use:   "delete [flow-id] [key]",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(2),
		Run:   deleteSecret,
	}

	secretCmd.AddCommand(secretListCmd, secretSetCmd, secretDeleteCmd)

	rootCmd.AddCommand(loginCmd, flowCmd, validateCmd, importCmd, signCmd, secretCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadCLIConfig loads the CLI configuration from disk.
func loadCLIConfig() {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".rantircloud", "cli-config.json")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Printf("Warning: Failed to read config file: %v\n", err)
		return
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		fmt.Printf("Warning: Failed to parse config file: %v\n", err)
		return
	}

	if serverURL == "" {
		serverURL = config.ServerURL
	}
	if username == "" {
		username = config.Username
	}
	if token == "" {
		token = config.Token
	}
}

// saveCLIConfig writes the CLI configuration to disk.
func saveCLIConfig(config Config) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir := filepath.Join(home, ".rantircloud")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "cli-config.json")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// apiRequest performs an authenticated request against the management API and
// returns the response body. Non-2xx responses become errors.
func apiRequest(method, path string, body interface{}) ([]byte, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("server URL is required (use --server or run login)")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return respBody, nil
}

func printJSON(data []byte) {
	var buf bytes.Buffer
	if json.Indent(&buf, data, "", "  ") == nil {
		fmt.Println(buf.String())
		return
	}
	fmt.Println(string(data))
}

func fail(format string, args ...interface{}) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func login(cmd *cobra.Command, args []string) {
	if serverURL == "" {
		fail("server URL is required")
	}
	if username == "" {
		fmt.Print("Username: ")
		fmt.Scanln(&username)
	}
	if password == "" {
		fmt.Print("Password: ")
		fmt.Scanln(&password)
	}

	resp, err := apiRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		fail("login failed: %v", err)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil || result.Token == "" {
		fail("unexpected login response")
	}

	token = result.Token
	if err := saveCLIConfig(Config{ServerURL: serverURL, Username: username, Token: token}); err != nil {
		fail("failed to save config: %v", err)
	}
	fmt.Println("Login successful")
}

func listFlows(cmd *cobra.Command, args []string) {
	resp, err := apiRequest(http.MethodGet, "/api/flows", nil)
	if err != nil {
		fail("%v", err)
	}
	printJSON(resp)
}

func getFlow(cmd *cobra.Command, args []string) {
	resp, err := apiRequest(http.MethodGet, "/api/flows/"+args[0], nil)
	if err != nil {
		fail("%v", err)
	}
	printJSON(resp)
}

func deleteFlow(cmd *cobra.Command, args []string) {
	if _, err := apiRequest(http.MethodDelete, "/api/flows/"+args[0], nil); err != nil {
		fail("%v", err)
	}
	fmt.Println("Flow deleted")
}

func validateFlow(cmd *cobra.Command, args []string) {
	flow, graph, err := loader.ParseFile(args[0])
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Valid: %s (%s), %d nodes, %d edges\n", flow.Name, flow.EndpointSlug, len(graph.Nodes), len(graph.Edges))
}

func importFlow(cmd *cobra.Command, args []string) {
	flow, graph, err := loader.ParseFile(args[0])
	if err != nil {
		fail("%v", err)
	}

	resp, err := apiRequest(http.MethodPost, "/api/flows", map[string]string{
		"name":          flow.Name,
		"endpoint_slug": flow.EndpointSlug,
	})
	if err != nil {
		fail("failed to create flow: %v", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &created); err != nil || created.ID == "" {
		fail("unexpected create response")
	}

	if flow.Signature.Provider != "" || len(flow.Variables) > 0 {
		_, err = apiRequest(http.MethodPut, "/api/flows/"+created.ID, map[string]interface{}{
			"signature": flow.Signature,
			"variables": flow.Variables,
		})
		if err != nil {
			fail("failed to update flow: %v", err)
		}
	}

	if _, err := apiRequest(http.MethodPost, "/api/flows/"+created.ID+"/publish", graph); err != nil {
		fail("failed to publish flow: %v", err)
	}
	fmt.Printf("Published flow %s at /hooks/%s\n", created.ID, flow.EndpointSlug)
}

func signBody(cmd *cobra.Command, args []string) {
	body, err := os.ReadFile(args[2])
	if err != nil {
		fail("failed to read body file: %v", err)
	}

	header, value, err := webhooks.Sign(args[0], args[1], body, time.Now())
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("%s: %s\n", header, value)
}

func listSecrets(cmd *cobra.Command, args []string) {
	resp, err := apiRequest(http.MethodGet, "/api/flows/"+args[0]+"/secrets", nil)
	if err != nil {
		fail("%v", err)
	}
	printJSON(resp)
}

func setSecret(cmd *cobra.Command, args []string) {
	_, err := apiRequest(http.MethodPut, "/api/flows/"+args[0]+"/secrets/"+args[1], map[string]string{
		"value": args[2],
	})
	if err != nil {
		fail("%v", err)
	}
	fmt.Println("Secret set")
}

func deleteSecret(cmd *cobra.Command, args []string) {
	if _, err := apiRequest(http.MethodDelete, "/api/flows/"+args[0]+"/secrets/"+args[1], nil); err != nil {
		fail("%v", err)
	}
	fmt.Println("Secret deleted")
}
