package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"estaleiro/internal/repository/timingrepo"
)

var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "Manutenção da tabela de SLA (modelo x área)",
}

func init() {
	slaCmd.AddCommand(&cobra.Command{
		Use:   "invalidate",
		Short: "Remove a tabela de SLA do cache",
		Long: `Apaga a cópia da tabela de SLA guardada no Redis. Use depois de a engenharia
alterar prazos; a próxima previsão relê a tabela do banco.`,
		RunE: runSLAInvalidate,
	})
	rootCmd.AddCommand(slaCmd)
}

func runSLAInvalidate(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	repo := timingrepo.NewTimingRepository(nil, e.cache, e.cfg.DBTimeout, e.cfg.SLACacheTTL, e.log)
	if err := repo.Invalidate(cmd.Context()); err != nil {
		return fmt.Errorf("sla invalidate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cache %s removido\n", timingrepo.CacheKey)
	return nil
}
