package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/0xERR0R/rpzindex/api"
	"github.com/0xERR0R/rpzindex/log"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "status [zone]",
		Args:  cobra.MaximumNArgs(1),
		Short: "prints the index's have-summary and per-zone trigger counts",
		RunE:  printStatus,
	}

	return c
}

func printStatus(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		return printZone(args[0])
	}

	resp, err := http.Get(apiURL(api.PathStatus))
	if err != nil {
		return fmt.Errorf("can't execute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("NOK: %s %s", resp.Status, string(body))
	}

	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("can't read response: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "KIND\tHAVE")

	for kind, have := range status.Have {
		fmt.Fprintf(w, "%s\t%t\n", kind, have)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "ZONE\tORIGIN\tCOUNTS")

	for _, z := range status.Zones {
		fmt.Fprintf(w, "%d\t%s\t%v\n", z.Num, z.Origin, z.Counts)
	}

	return w.Flush()
}

func printZone(arg string) error {
	num, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid zone number %q: %w", arg, err)
	}

	resp, err := http.Get(apiURL(fmt.Sprintf("/api/rpz/zones/%d", num)))
	if err != nil {
		return fmt.Errorf("can't execute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("NOK: %s %s", resp.Status, string(body))
	}

	var zd api.ZoneDescResponse
	if err := json.NewDecoder(resp.Body).Decode(&zd); err != nil {
		return fmt.Errorf("can't read response: %w", err)
	}

	log.Log().Infof("zone %d (%s): %v", zd.Num, zd.Origin, zd.Counts)

	return nil
}
