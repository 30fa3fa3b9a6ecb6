package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/export"
	"github.com/topoforge-network/topoforge/pkg/topology"
)

var (
	exportTopoFile string
	exportDir      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a topology for downstream tools",
}

var exportClabCmd = &cobra.Command{
	Use:   "clab",
	Short: "Write a containerlab topology file",
	Long: `Convert a topology into the containerlab shape and write
<name>.clab.yml.

Examples:
  topoforge export clab -t topo.yml -d ./labs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := topology.LoadFile(exportTopoFile)
		if err != nil {
			return err
		}
		dir := exportDir
		if dir == "" {
			dir = userSettings.GetExportDir()
		}
		path, err := export.WriteClabFile(topo, dir)
		if err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	},
}

var exportOSPFCmd = &cobra.Command{
	Use:   "ospf",
	Short: "Emit the per-router OSPF configuration intent",
	RunE: func(cmd *cobra.Command, args []string) error {
		topo, err := topology.LoadFile(exportTopoFile)
		if err != nil {
			return err
		}
		routers := export.OSPFIntent(topo)
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(routers)
		}
		for _, r := range routers {
			fmt.Printf("router %s (id %s):\n", r.Device, r.RouterID)
			for _, n := range r.Networks {
				fmt.Printf("  network %s %s area %d\n", n.Network, n.Wildcard, n.Area)
			}
		}
		return nil
	},
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportTopoFile, "topology", "t", "", "topology YAML file (required)")
	exportCmd.PersistentFlags().StringVarP(&exportDir, "dir", "d", "", "output directory")
	exportCmd.MarkPersistentFlagRequired("topology")
	exportCmd.AddCommand(exportClabCmd)
	exportCmd.AddCommand(exportOSPFCmd)
}
