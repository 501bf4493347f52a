package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/config"
	"github.com/travnick/wmbusmeters/internal/meter"
	"github.com/travnick/wmbusmeters/internal/options"
	"github.com/travnick/wmbusmeters/internal/obslog"
	"github.com/travnick/wmbusmeters/internal/telegram"
	"github.com/travnick/wmbusmeters/internal/transport/stdinreader"
	"github.com/travnick/wmbusmeters/pkg/wmbuscore"
)

var (
	rootCmd = &cobra.Command{
		Use:   "wmbus-analyze",
		Short: "Decode Wireless M-Bus telegrams",
		Long:  "wmbus-analyze decodes Wireless M-Bus telegrams using the wmbusmeters core library.",
	}

	logLevel   string
	configPath string
	keyHex     string

	analyzeCmd = &cobra.Command{
		Use:   "analyze <hex>",
		Short: "Decode one telegram against every registered driver and report the best match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := binutil.Hex2Bin(args[0])
			if err != nil {
				return err
			}
			key, err := options.ParseKeyHex(keyHex)
			if err != nil {
				return err
			}
			reg := wmbuscore.NewRegistry()
			report, _, err := wmbuscore.AnalyzeHex(reg, raw, key)
			if err != nil {
				return err
			}
			fmt.Println(report.String())
			return nil
		},
	}

	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Read newline-delimited hex telegrams from stdin and feed them through a configured meter manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := obslog.New(logLevel)
			engine := wmbuscore.NewEngine(log)

			if configPath != "" {
				_, meters, err := config.Load(configPath)
				if err != nil {
					return err
				}
				engine.LoadMeters(meters)
			}

			engine.Listen(func(t *telegram.Telegram, results []meter.HandleResult) {
				printResults(t, results)
			})

			return stdinreader.Read(os.Stdin, func(frame []byte) error {
				_, err := engine.Handle(frame)
				return err
			}, func(line string, err error) {
				log.WithError(err).Warnf("skipping malformed line %q", line)
			})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	analyzeCmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded 16-byte AES key (32 hex chars)")
	listenCmd.Flags().StringVar(&configPath, "config", "", "path to a TOML meter configuration file")
	rootCmd.AddCommand(analyzeCmd, listenCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func printResults(t *telegram.Telegram, results []meter.HandleResult) {
	for _, r := range results {
		entry := map[string]any{
			"meter_id":     t.MeterIDString(),
			"manufacturer": fmt.Sprintf("0x%04X", t.Manufacturer),
			"status":       t.StatusLabel(),
			"meter":        r.Meter.Name,
			"matched":      r.Matched,
			"exact_match":  r.ExactMatch,
			"handled":      r.Handled,
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		if r.Handled {
			entry["fields"] = r.Meter.Fields()
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Printf("%+v\n", entry)
			continue
		}
		fmt.Println(string(data))
	}
}
