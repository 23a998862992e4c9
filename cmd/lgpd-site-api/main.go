package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lgpd-site-api",
	Short: "LGPD Site API - captação de leads e diagnóstico de maturidade",
	Long: `Backend dos formulários do site de consultoria LGPD: leads, contato,
newsletter, diagnóstico de maturidade e agendamento de consulta.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
