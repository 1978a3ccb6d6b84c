/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/providers"
	"github.com/a11yscan/scanstore/storagemodels"
)

// providerOptions returns the options shared by every provider the CLI builds.
func (a *app) providerOptions() ([]providers.Option, error) {
	keys, err := a.partitionKeys()
	if err != nil {
		return nil, err
	}
	return []providers.Option{
		providers.WithGenerator(a.ids),
		providers.WithPartitionKeyFactory(keys),
		providers.WithLogger(a.logger),
		providers.WithPagingOptions(paging.WithMaxItemCount(a.cfg.Paging.MaxItemCount)),
	}, nil
}

func (a *app) websites(ctx context.Context) (*providers.WebsiteProvider, error) {
	opts, err := a.providerOptions()
	if err != nil {
		return nil, err
	}
	b, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	s, err := store[storagemodels.Website](b)
	if err != nil {
		return nil, err
	}
	return providers.NewWebsiteProvider(s, opts...), nil
}

func (a *app) pages(ctx context.Context) (*providers.PageProvider, error) {
	opts, err := a.providerOptions()
	if err != nil {
		return nil, err
	}
	b, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	s, err := store[storagemodels.Page](b)
	if err != nil {
		return nil, err
	}
	return providers.NewPageProvider(s, opts...), nil
}

func newWebsiteCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "website",
		Short: "Manage websites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name> <base-url>",
		Short: "Register a website",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			websites, err := a.websites(cmd.Context())
			if err != nil {
				return err
			}
			site, err := websites.Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(site)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			websites, err := a.websites(cmd.Context())
			if err != nil {
				return err
			}
			return websites.Delete(cmd.Context(), args[0])
		},
	})

	return cmd
}

func newPageCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage the pages of websites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <website-id> <url>",
		Short: "Add a page to a website",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := a.pages(cmd.Context())
			if err != nil {
				return err
			}
			page, err := pages.Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(page)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <website-id>",
		Short: "List the pages of a website as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := a.pages(cmd.Context())
			if err != nil {
				return err
			}
			list, err := pages.ListByWebsite(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for page, err := range list.All(cmd.Context()) {
				if err != nil {
					return err
				}
				if err := enc.Encode(page); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}
