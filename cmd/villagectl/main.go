// Command villagectl is the operator CLI for a running villagecraft server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	flagAddr   string
	flagPlayer string
	flagToken  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "villagectl",
		Short: "Operate a villagecraft server",
		Long: `villagectl talks to a running villagecraft server: create villages,
order building upgrades, and inspect game state.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "http://localhost:8080", "server address")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", os.Getenv("VILLAGECRAFT_PLAYER"), "acting player id (uuid)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("VILLAGECRAFT_ADMIN_KEY"), "admin bearer token")

	rootCmd.AddCommand(
		catalogCmd(),
		villagesCmd(),
		villageCmd(),
		createCmd(),
		upgradeCmd(),
		balanceCmd(),
		depositCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show building rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Buildings []struct {
					ID          uint8  `json:"id"`
					Name        string `json:"name"`
					MaxLevel    int    `json:"max_level"`
					UpgradeCost int64  `json:"upgrade_cost"`
					Requires    *struct {
						Building uint8 `json:"building"`
						MinLevel int   `json:"min_level"`
					} `json:"requires"`
				} `json:"buildings"`
				UpgradeDurations []int64 `json:"upgrade_durations"`
			}
			if err := get("/api/v1/catalog", &resp); err != nil {
				return err
			}

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"ID", "Building", "Max", "Cost", "Requires"}),
			)
			for _, b := range resp.Buildings {
				requires := "-"
				if b.Requires != nil {
					requires = fmt.Sprintf("building %d lvl %d", b.Requires.Building, b.Requires.MinLevel)
				}
				table.Append([]string{
					strconv.Itoa(int(b.ID)),
					b.Name,
					strconv.Itoa(b.MaxLevel),
					humanize.Comma(b.UpgradeCost),
					requires,
				})
			}
			table.Render()

			fmt.Println("\nUpgrade durations (shared by all buildings):")
			for i, d := range resp.UpgradeDurations {
				fmt.Printf("  level %2d: %s\n", i+1, (time.Duration(d) * time.Second).String())
			}
			return nil
		},
	}
}

func villagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "villages",
		Short: "List all villages",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Count    int `json:"count"`
				Villages []struct {
					ID       uint64 `json:"id"`
					Name     string `json:"name"`
					Owner    string `json:"owner"`
					Position struct {
						Q int `json:"q"`
						R int `json:"r"`
					} `json:"position"`
				} `json:"villages"`
			}
			if err := get("/api/v1/villages", &resp); err != nil {
				return err
			}

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"ID", "Name", "Owner", "Position"}),
			)
			for _, v := range resp.Villages {
				table.Append([]string{
					strconv.FormatUint(v.ID, 10),
					v.Name,
					v.Owner,
					fmt.Sprintf("(%d, %d)", v.Position.Q, v.Position.R),
				})
			}
			table.Render()
			return nil
		},
	}
}

func villageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "village <id>",
		Short: "Show one village's buildings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				ID              uint64         `json:"id"`
				Name            string         `json:"name"`
				Description     string         `json:"description"`
				Owner           string         `json:"owner"`
				Buildings       map[string]int `json:"buildings"`
				UpgradeUnlockAt int64          `json:"upgrade_unlock_at"`
			}
			if err := get("/api/v1/villages/"+args[0], &resp); err != nil {
				return err
			}

			fmt.Printf("%s (#%d) — owner %s\n", resp.Name, resp.ID, resp.Owner)
			if resp.Description != "" {
				fmt.Println(resp.Description)
			}
			unlock := time.Unix(resp.UpgradeUnlockAt, 0)
			if unlock.After(time.Now()) {
				fmt.Printf("upgrade slot busy, free %s\n", humanize.Time(unlock))
			} else {
				fmt.Println("upgrade slot idle")
			}

			ids := make([]string, 0, len(resp.Buildings))
			for id := range resp.Buildings {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				a, _ := strconv.Atoi(ids[i])
				b, _ := strconv.Atoi(ids[j])
				return a < b
			})

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Building", "Level"}),
			)
			for _, id := range ids {
				table.Append([]string{id, strconv.Itoa(resp.Buildings[id])})
			}
			table.Render()
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Found a new village",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			var resp struct {
				ID       uint64 `json:"id"`
				Name     string `json:"name"`
				Position struct {
					Q int `json:"q"`
					R int `json:"r"`
				} `json:"position"`
			}
			err := post("/api/v1/villages", map[string]string{
				"name":        args[0],
				"description": description,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Printf("village #%d %q founded at (%d, %d)\n", resp.ID, resp.Name, resp.Position.Q, resp.Position.R)
			return nil
		},
	}
}

func upgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <village-id> <building-id>",
		Short: "Order a building upgrade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildingID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("building id %q is not a number", args[1])
			}
			var resp struct {
				BuildingID uint8 `json:"building_id"`
				Level      int   `json:"level"`
				UnlockAt   int64 `json:"unlock_at"`
			}
			err = post("/api/v1/villages/"+args[0]+"/upgrade", map[string]int{
				"building_id": buildingID,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Printf("building %d upgraded to level %d, slot free %s\n",
				resp.BuildingID, resp.Level, humanize.Time(time.Unix(resp.UnlockAt, 0)))
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [player]",
		Short: "Show a player's crown balance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player := flagPlayer
			if len(args) > 0 {
				player = args[0]
			}
			if player == "" {
				return fmt.Errorf("no player id given (use --player or an argument)")
			}
			var resp struct {
				Player  string `json:"player"`
				Balance int64  `json:"balance"`
			}
			if err := get("/api/v1/balance/"+player, &resp); err != nil {
				return err
			}
			fmt.Printf("%s: %s crowns\n", resp.Player, humanize.Comma(resp.Balance))
			return nil
		},
	}
}

func depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <player> <amount>",
		Short: "Credit a player's account (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q is not a number", args[1])
			}
			var resp struct {
				Player  string `json:"player"`
				Balance int64  `json:"balance"`
			}
			err = post("/api/v1/deposit", map[string]any{
				"player": args[0],
				"amount": amount,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s crowns\n", resp.Player, humanize.Comma(resp.Balance))
			return nil
		},
	}
}

func get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, flagAddr+path, nil)
	if err != nil {
		return err
	}
	return do(req, out)
}

func post(path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, flagAddr+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, out)
}

func do(req *http.Request, out any) error {
	if flagPlayer != "" {
		req.Header.Set("X-Player-ID", flagPlayer)
	}
	if flagToken != "" {
		req.Header.Set("Authorization", "Bearer "+flagToken)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
