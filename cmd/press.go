package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/mqtt"
)

var (
	pressDir   string
	pressFloor int
	pressCar   string
	pressAPI   string
)

var pressCmd = &cobra.Command{
	Use:   "press",
	Short: "Press a button of a running simulation over MQTT or HTTP",
}

var pressCallCmd = &cobra.Command{
	Use:   "call",
	Short: "Press a hall call button",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := model.ParseDirection(pressDir)
		if err != nil {
			return err
		}
		return press(cmd, model.CallRequest(dir, model.Floor(pressFloor)))
	},
}

var pressPanelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Press a floor button inside a car",
	RunE: func(cmd *cobra.Command, args []string) error {
		return press(cmd, model.PanelRequest(pressCar, model.Floor(pressFloor)))
	},
}

func init() {
	pressCmd.PersistentFlags().IntVar(&pressFloor, "floor", 0, "floor of the button")
	pressCmd.PersistentFlags().StringVar(&pressAPI, "api", "", "press through the HTTP API at this base URL instead of MQTT")
	addAuthFlags(pressCmd)
	pressCallCmd.Flags().StringVar(&pressDir, "dir", "up", "direction of the call (up or down)")
	pressPanelCmd.Flags().StringVar(&pressCar, "car", "", "car whose panel is pressed")
	_ = pressPanelCmd.MarkFlagRequired("car")
	pressCmd.AddCommand(pressCallCmd, pressPanelCmd)
	rootCmd.AddCommand(pressCmd)
}

func press(cmd *cobra.Command, req model.Request) error {
	if req.Kind != model.KindPanel && req.Kind.Direction() == model.DirNone {
		return fmt.Errorf("%w: hall calls need up or down", model.ErrInvalidDirection)
	}
	if pressAPI != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		client, err := apiClient(ctx)
		if err != nil {
			return err
		}
		if err := pressHTTP(ctx, client, pressAPI, req); err != nil {
			return err
		}
	} else if err := pressMQTT(req); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pressed %s\n", req)
	return nil
}

func pressMQTT(req model.Request) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mqttCfg := cfg.MQTT
	mqttCfg.Enabled = true
	suffix := time.Now().UnixNano()
	if mqttCfg.ClientID != "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-press-%d", mqttCfg.ClientID, suffix)
	} else {
		mqttCfg.ClientID = fmt.Sprintf("liftsim-press-%d", suffix)
	}
	mqttCfg.SetDefaults()
	if err := mqttCfg.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	client, err := mqtt.NewPahoClient(mqttCfg)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()
	return mqtt.NewButtonPublisher(client, mqttCfg.TopicPrefix).Press(req)
}

func pressHTTP(ctx context.Context, client *http.Client, base string, req model.Request) error {
	base = strings.TrimRight(base, "/")
	body := map[string]any{"floor": req.Floor}
	var u string
	if req.Kind == model.KindPanel {
		u = base + "/api/cars/" + url.PathEscape(req.CarID) + "/panel"
	} else {
		u = base + "/api/calls"
		body["direction"] = req.Kind.Direction()
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(hreq)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("press %s: %s: %s", req, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
