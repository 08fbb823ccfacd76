package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lunalink/lunalink/internal/hostdb"
	"github.com/lunalink/lunalink/internal/prefs"
	"github.com/lunalink/lunalink/internal/session"
)

// settingsPath resolves the settings file, honoring LUNALINK_SETTINGS
// for tests and unusual setups.
func settingsPath() string {
	if p := os.Getenv("LUNALINK_SETTINGS"); p != "" {
		return p
	}
	return prefs.DefaultBackendPath()
}

func openLocalBridge() *prefs.Bridge {
	return prefs.NewBridge(prefs.NewFileBackend(settingsPath()))
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update stream settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all stream settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge := openLocalBridge()
		set := bridge.Snapshot()

		for _, key := range prefs.Keys() {
			kind, _ := prefs.KindOf(key)
			var value string
			if kind == "bool" {
				value = strconv.FormatBool(bridge.GetBool(key, false))
			} else {
				value = bridge.GetString(key, "")
			}
			if key == prefs.KeyBitrate && value == "" {
				value = fmt.Sprintf("automatic (%d kbps)", set.EffectiveBitrate())
			}
			fmt.Printf("  %s = %s\n", colorize(colorBold, key), value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one stream setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		kind, ok := prefs.KindOf(key)
		if !ok {
			return fmt.Errorf("unknown setting key %q (valid: %s)", key, strings.Join(prefs.Keys(), ", "))
		}

		bridge := openLocalBridge()
		if kind == "bool" {
			fmt.Println(strconv.FormatBool(bridge.GetBool(key, false)))
		} else {
			fmt.Println(bridge.GetString(key, ""))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a stream setting",
	Long: `Set a stream setting.

Enum settings take persistence tokens:
  resolution: 720p, 1080p, 1440p, 2160p
  fps:        30, 60, 120

An empty bitrate ("") means automatic.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		kind, ok := prefs.KindOf(key)
		if !ok {
			return fmt.Errorf("unknown setting key %q (valid: %s)", key, strings.Join(prefs.Keys(), ", "))
		}

		bridge := openLocalBridge()
		if kind == "bool" {
			v, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("setting %q wants a bool value: %w", key, err)
			}
			if err := bridge.PutBool(key, v); err != nil {
				return err
			}
			printSuccess("Set %s = %t", key, v)
			return nil
		}

		if err := bridge.PutString(key, value); err != nil {
			return err
		}
		canonical := bridge.GetString(key, "")
		if canonical != value {
			// Unrecognized enum tokens are tolerated by keeping the
			// previous value; tell the user what actually happened.
			printWarning("%q was not applied as-is; %s is now %q", value, key, canonical)
			return nil
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- export / import ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stream settings to a shareable JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		serializer := prefs.NewSerializer(openLocalBridge())

		if output == "" {
			data, err := serializer.Export()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		sess := session.New(serializer)
		defer sess.Close()

		printStep("Exporting settings to %s...", output)
		res := <-sess.StartExport(output)
		if res.Err != nil {
			return fmt.Errorf("export failed: %w", res.Err)
		}
		printSuccess("Settings exported to %s", output)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import stream settings from a previously exported document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening document: %w", err)
		}
		defer f.Close()

		sess := session.New(prefs.NewSerializer(openLocalBridge()))
		defer sess.Close()

		printStep("Applying settings from %s...", args[0])
		res := <-sess.StartImport(f)
		if res.Err != nil {
			return fmt.Errorf("import failed: %w", res.Err)
		}
		for _, field := range res.Summary.Skipped {
			printWarning("Skipped %s: value not recognized by this version", field)
		}
		printSuccess("Settings imported from %s", args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- hosts ---

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Manage paired hosts (requires a running daemon)",
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List paired hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/hosts")
		if err != nil {
			return err
		}
		var hosts []hostdb.Host
		if err := decodeJSON(resp, &hosts); err != nil {
			return err
		}

		if len(hosts) == 0 {
			fmt.Println("no paired hosts")
			return nil
		}
		for _, h := range hosts {
			fmt.Printf("  %s  %s  %s  paired %s\n",
				colorize(colorBold, h.Name), h.Address, h.ID, h.PairedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var hostsAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Register a newly paired host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/hosts", map[string]string{
			"name":    args[0],
			"address": args[1],
		})
		if err != nil {
			return err
		}
		var host hostdb.Host
		if err := decodeJSON(resp, &host); err != nil {
			return err
		}
		printSuccess("Paired %s (%s) as %s", host.Name, host.Address, host.ID)
		return nil
	},
}

var hostsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Unpair a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/hosts/"+args[0])
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}
		printSuccess("Unpaired host %s", args[0])
		return nil
	},
}

var hostsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of paired hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := fetchHostCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func fetchHostCount(ctx context.Context) (int, error) {
	client, err := newAPIClient()
	if err != nil {
		return 0, err
	}
	resp, err := client.get(ctx, "/hosts/count")
	if err != nil {
		return 0, err
	}
	var count struct {
		Count int `json:"count"`
	}
	if err := decodeJSON(resp, &count); err != nil {
		return 0, err
	}
	return count.Count, nil
}

func init() {
	hostsCmd.AddCommand(hostsListCmd)
	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsRemoveCmd)
	hostsCmd.AddCommand(hostsCountCmd)
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and settings status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		running := false
		if resp, err := client.get(cmd.Context(), "/health"); err == nil {
			resp.Body.Close()
			running = resp.StatusCode == 200
		}
		if running {
			printStatus("Daemon", "running on port %d", serverPort())
			if n, err := fetchHostCount(cmd.Context()); err == nil {
				printStatus("Paired hosts", "%d", n)
			}
		} else {
			printStatus("Daemon", "stopped")
		}

		set := openLocalBridge().Snapshot()
		printStatus("Resolution", "%s", set.Resolution.Label())
		printStatus("Frame rate", "%s", set.FPS.Label())
		if set.Bitrate != nil {
			printStatus("Bitrate", "%d kbps", *set.Bitrate)
		} else {
			printStatus("Bitrate", "automatic (%d kbps)", set.EffectiveBitrate())
		}
		printStatus("Settings file", "%s", settingsPath())
		printStatus("Data dir", "%s", defaultDataDir())
		return nil
	},
}
