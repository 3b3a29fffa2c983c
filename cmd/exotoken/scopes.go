/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/acronis/go-exotoken/idptoken"
)

func newScopesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List scope selectors and the audiences they resolve to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]any, 0, len(idptoken.KnownScopes()))
			for _, s := range idptoken.KnownScopes() {
				aud, _ := s.Audience()
				rows = append(rows, []any{string(s), aud})
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Selector", "Scope")
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		},
	}
}
