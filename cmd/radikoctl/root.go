package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServerURL = "http://127.0.0.1:8080"

// client appelle l'API v1 et affiche les réponses JSON indentées.
type client struct {
	baseURL string
	http    *http.Client
	out     io.Writer
}

func (c *client) do(method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+"/api/v1"+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	var pretty any
	if len(b) > 0 && json.Unmarshal(b, &pretty) == nil {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		_ = enc.Encode(pretty)
	} else if len(b) > 0 {
		fmt.Fprintln(c.out, string(b))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RADIKO")
	v.SetDefault("server_url", defaultServerURL)
	v.SetDefault("timeout", 10*time.Second)
	_ = v.BindEnv("server_url")
	_ = v.BindEnv("timeout")

	cl := &client{}
	root := &cobra.Command{
		Use:           "radikoctl",
		Short:         "Client de l'API radiko-server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.baseURL = v.GetString("server_url")
			cl.http = &http.Client{Timeout: v.GetDuration("timeout")}
			cl.out = cmd.OutOrStdout()
		},
	}
	root.PersistentFlags().String("server", defaultServerURL, "URL du serveur (env RADIKO_SERVER_URL)")
	root.PersistentFlags().Duration("timeout", 10*time.Second, "Timeout HTTP (env RADIKO_TIMEOUT)")
	_ = v.BindPFlag("server_url", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "État du serveur",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return cl.do(http.MethodGet, "/health", nil) },
		},
		&cobra.Command{
			Use:   "version",
			Short: "Version du serveur",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return cl.do(http.MethodGet, "/version", nil) },
		},
		newStationsCmd(cl),
		newSchedulesCmd(cl),
		newProgramsCmd(cl),
	)
	return root
}

func newStationsCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "stations", Short: "Stations radiko"}

	var limit int
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodGet, "/stations"+query("limit", limitValue(limit)), nil)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Nombre maximum de stations")

	var name string
	add := &cobra.Command{
		Use:  "add CALLSIGN",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodPost, "/stations", map[string]string{"callSign": args[0], "stationName": name})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Nom affiché")

	get := &cobra.Command{
		Use:  "get CALLSIGN",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodGet, "/stations/by-call-sign/"+url.PathEscape(args[0]), nil)
		},
	}

	cmd.AddCommand(list, add, get)
	return cmd
}

func newSchedulesCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "schedules", Short: "Créneaux hebdomadaires"}

	var weekDay string
	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodGet, "/schedules"+query("weekDay", weekDay), nil)
		},
	}
	list.Flags().StringVar(&weekDay, "week-day", "", "Jour (MON..SUN)")

	var in struct {
		CallSign    string `json:"callSign"`
		ProgramName string `json:"programName"`
		WeekDay     string `json:"weekDay"`
		StartTime   string `json:"startTime"`
		Notes       string `json:"notes,omitempty"`
		FavoRate    *int64 `json:"favoRate,omitempty"`
	}
	var favoRate int64
	add := &cobra.Command{
		Use:  "add CALLSIGN PROGRAM WEEKDAY HH:MM",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.CallSign, in.ProgramName, in.WeekDay, in.StartTime = args[0], args[1], args[2], args[3]
			if cmd.Flags().Changed("favo-rate") {
				in.FavoRate = &favoRate
			}
			return cl.do(http.MethodPost, "/schedules", in)
		},
	}
	add.Flags().StringVar(&in.Notes, "notes", "", "Notes recopiées sur les diffusions")
	add.Flags().Int64Var(&favoRate, "favo-rate", 0, "Note de préférence")

	plan := &cobra.Command{
		Use:  "plan OID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodPost, "/schedules/"+url.PathEscape(args[0])+"/plan", nil)
		},
	}

	cmd.AddCommand(list, add, plan)
	return cmd
}

func newProgramsCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "programs", Short: "Diffusions réservées"}

	var from, to string
	list := &cobra.Command{
		Use:   "list",
		Short: "Diffusions dont le début est dans [from, to] (RFC3339)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			path := "/programs"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return cl.do(http.MethodGet, path, nil)
		},
	}
	list.Flags().StringVar(&from, "from", "", "Début (RFC3339)")
	list.Flags().StringVar(&to, "to", "", "Fin (RFC3339)")

	var note string
	reserve := &cobra.Command{
		Use:  "reserve CALLSIGN PROGRAM START",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, args[2])
			if err != nil {
				return fmt.Errorf("invalid start %q: %w", args[2], err)
			}
			return cl.do(http.MethodPost, "/programs", map[string]any{
				"callSign":      args[0],
				"programName":   args[1],
				"startDatetime": start,
				"note":          note,
			})
		},
	}
	reserve.Flags().StringVar(&note, "note", "", "Note")

	listened := &cobra.Command{
		Use:  "listened OID",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.do(http.MethodPost, "/programs/"+url.PathEscape(args[0])+"/listened", nil)
		},
	}

	cmd.AddCommand(list, reserve, listened)
	return cmd
}

func query(key, value string) string {
	if value == "" {
		return ""
	}
	return "?" + url.Values{key: []string{value}}.Encode()
}

func limitValue(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprint(limit)
}
